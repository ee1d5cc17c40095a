package combat

import (
	"fmt"
	"sync"

	"github.com/gridfall/gridfall/internal/game/dice"
	"github.com/gridfall/gridfall/internal/game/player"
)

// Engine manages all active fights, keyed by room code.
// All methods are safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	roller *dice.Roller
	fights map[string]*Fight
}

// NewEngine creates an empty combat Engine rolling with roller.
//
// Precondition: roller must be non-nil.
func NewEngine(roller *dice.Roller) *Engine {
	return &Engine{
		roller: roller,
		fights: make(map[string]*Fight),
	}
}

// Begin starts a fight between attacker and defender in roomCode.
//
// Precondition: roomCode must be non-empty; attacker and defender must be
// distinct non-nil players.
// Postcondition: Returns the new Fight, or an error when a fight is already
// active in the room.
func (e *Engine) Begin(roomCode string, attacker, defender *player.Player, debug bool) (*Fight, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.fights[roomCode]; exists {
		return nil, fmt.Errorf("fight already active in room %q", roomCode)
	}
	f := NewFight(roomCode, attacker, defender, debug, e.roller)
	e.fights[roomCode] = f
	return f, nil
}

// Fight returns the active fight in roomCode.
//
// Postcondition: Returns (fight, true) if found, or (nil, false) otherwise.
func (e *Engine) Fight(roomCode string) (*Fight, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.fights[roomCode]
	return f, ok
}

// End removes the fight record for roomCode. Safe to call when no fight is
// active.
func (e *Engine) End(roomCode string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.fights, roomCode)
}

// InFight reports whether username is a combatant in roomCode's fight.
func (e *Engine) InFight(roomCode, username string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.fights[roomCode]
	return ok && f.Involves(username)
}
