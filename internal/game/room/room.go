// Package room provides the per-room game context and the registry that
// owns it. Components receive a *Room handle instead of indexing global
// maps by room code.
package room

import (
	"sync"

	"github.com/gridfall/gridfall/internal/game/player"
)

// Room is the authoritative turn-order state for one game session. The
// mutex serializes roster and turn-pointer mutations; each room is a
// single-writer domain at any instant.
type Room struct {
	// Code is the room access code, unique per process.
	Code string

	mu sync.Mutex
	// players is the randomized turn order fixed at game start.
	players     []*player.Player
	activeIndex int
	// turnInProgress absorbs double-advancement from overlapping end-turn
	// triggers (timer expiry racing a manual end-turn).
	turnInProgress bool
	// botActionOwed tracks, per username, whether a virtual player still
	// owes its action for the current turn.
	botActionOwed map[string]bool

	// Debug enables deterministic dice and admin teleport moves.
	Debug bool
	// CaptureTheFlag selects the flag-home win condition.
	CaptureTheFlag bool
	// Started is set once start-game has initialized the scheduler.
	Started bool
}

// New creates a room with the given code.
//
// Precondition: code must be non-empty.
func New(code string) *Room {
	return &Room{
		Code:          code,
		botActionOwed: make(map[string]bool),
	}
}

// SetPlayers installs the randomized turn order and resets the active
// pointer. Called once at game start.
func (r *Room) SetPlayers(players []*player.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = players
	r.activeIndex = 0
}

// Players returns a snapshot of the turn order.
func (r *Room) Players() []*player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*player.Player, len(r.players))
	copy(out, r.players)
	return out
}

// Player returns the participant with the given username.
//
// Postcondition: Returns (player, true) if found, or (nil, false) otherwise.
func (r *Room) Player(username string) (*player.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Username == username {
			return p, true
		}
	}
	return nil, false
}

// ActivePlayer returns the player currently entitled to act.
//
// Postcondition: Returns (nil, -1) when the room has no players.
func (r *Room) ActivePlayer() (*player.Player, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) == 0 {
		return nil, -1
	}
	return r.players[r.activeIndex], r.activeIndex
}

// Advance moves the active pointer to the next player, wrapping around.
//
// Postcondition: Returns the new active player, or nil for an empty room.
func (r *Room) Advance() *player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) == 0 {
		return nil
	}
	r.activeIndex = (r.activeIndex + 1) % len(r.players)
	return r.players[r.activeIndex]
}

// Remove drops the participant with the given username and re-indexes the
// active pointer: a departure before the active index decrements it by one
// so it keeps pointing at the same logical player.
//
// Postcondition: Returns false when the username is not present.
func (r *Room) Remove(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, p := range r.players {
		if p.Username == username {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.botActionOwed, username)
	if len(r.players) == 0 {
		r.activeIndex = 0
		return true
	}
	if idx < r.activeIndex {
		r.activeIndex--
	}
	if r.activeIndex >= len(r.players) {
		r.activeIndex = 0
	}
	return true
}

// HumanCount returns the number of non-virtual participants. The room is
// torn down when this reaches zero.
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.players {
		if !p.IsVirtual {
			n++
		}
	}
	return n
}

// BeginTurnTransition sets the turn-in-progress guard.
//
// Postcondition: Returns false when a transition is already in progress;
// the caller must then absorb its trigger.
func (r *Room) BeginTurnTransition() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.turnInProgress {
		return false
	}
	r.turnInProgress = true
	return true
}

// EndTurnTransition clears the turn-in-progress guard. Scheduled a short
// fixed delay after the transition.
func (r *Room) EndTurnTransition() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turnInProgress = false
}

// SetBotActionOwed records whether the virtual player still owes an action
// this turn.
func (r *Room) SetBotActionOwed(username string, owed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owed {
		r.botActionOwed[username] = true
	} else {
		delete(r.botActionOwed, username)
	}
}

// BotActionOwed reports whether the virtual player still owes an action.
func (r *Room) BotActionOwed(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.botActionOwed[username]
}
