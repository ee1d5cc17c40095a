package bot

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridfall/gridfall/internal/game/board"
	"github.com/gridfall/gridfall/internal/game/item"
	"github.com/gridfall/gridfall/internal/game/pathfind"
	"github.com/gridfall/gridfall/internal/game/player"
	"github.com/gridfall/gridfall/internal/game/room"
)

// Config carries the virtual-player tuning parameters.
type Config struct {
	// StepInterval is the delay between consecutive movement steps.
	StepInterval time.Duration
	// IceStopChance is the percent chance to halt after stepping onto ice.
	IceStopChance int
	// ItemThrowChance is the percent chance a full-inventory bot discards
	// its first item before moving.
	ItemThrowChance int
}

// RoomProvider looks up live rooms. Satisfied by *room.Registry.
type RoomProvider interface {
	Get(code string) (*room.Room, bool)
}

// BoardProvider looks up the live board of a room. Satisfied by *board.Store.
type BoardProvider interface {
	Board(code string) (*board.Board, bool)
}

// FightChecker reports whether a player is in an active fight. Satisfied by
// *combat.Engine.
type FightChecker interface {
	InFight(roomCode, username string) bool
}

// Source is the randomness provider for the stop and throw chances.
type Source interface {
	Intn(n int) int
}

// MoveOutcome reports what a single movement step did.
type MoveOutcome struct {
	Moved      bool
	PickedItem bool
}

// Actions is the game-command surface the engine drives. Every command goes
// through the same handlers that serve human players, so a bot's moves are
// validated and broadcast identically.
type Actions interface {
	MoveStep(roomCode string, p *player.Player, to board.Position) MoveOutcome
	ToggleDoor(roomCode string, p *player.Player, at board.Position) bool
	StartFight(roomCode string, p *player.Player, opponent string)
	ThrowItem(roomCode string, p *player.Player, id item.ID)
	EndTurn(roomCode string)
}

// phase is a step-machine stage. One activation runs the phases in order
// and never revisits one; every transition is driven by the step ticker.
type phase int

const (
	phaseDeciding phase = iota
	phaseMoving
	phaseActingOnArrival
	phaseDone
)

// Engine executes one turn intent per virtual-player activation. All methods
// are safe for concurrent use.
type Engine struct {
	log     *zap.Logger
	cfg     Config
	rooms   RoomProvider
	boards  BoardProvider
	actions Actions
	fights  FightChecker
	rng     Source

	mu     sync.Mutex
	active map[string]bool // room+"\x00"+username → activation running
}

// NewEngine creates an Engine.
//
// Precondition: all arguments must be non-nil; cfg must be validated.
func NewEngine(cfg Config, log *zap.Logger, rooms RoomProvider, boards BoardProvider, actions Actions, fights FightChecker, rng Source) *Engine {
	return &Engine{
		log:     log,
		cfg:     cfg,
		rooms:   rooms,
		boards:  boards,
		actions: actions,
		fights:  fights,
		rng:     rng,
		active:  make(map[string]bool),
	}
}

// TakeTurn runs one activation for the virtual player on its own goroutine.
// A second activation for the same player while one is running is dropped.
func (e *Engine) TakeTurn(code string, p *player.Player) {
	key := code + "\x00" + p.Username
	e.mu.Lock()
	if e.active[key] {
		e.mu.Unlock()
		return
	}
	e.active[key] = true
	e.mu.Unlock()

	go func() {
		defer func() {
			e.mu.Lock()
			delete(e.active, key)
			e.mu.Unlock()
		}()
		e.runTurn(code, p)
	}()
}

// runTurn is the step machine. The live board is re-fetched on every step:
// other players mutate the grid between deferred steps, so nothing from the
// previous step is trusted.
func (e *Engine) runTurn(code string, p *player.Player) {
	r, ok := e.rooms.Get(code)
	if !ok {
		return
	}
	r.SetBotActionOwed(p.Username, true)

	log := e.log.With(zap.String("room", code), zap.String("bot", p.Username))

	var dest board.Position
	haveDest := false
	state := phaseDeciding

	ticker := time.NewTicker(e.cfg.StepInterval)
	defer ticker.Stop()

	for state != phaseDone {
		<-ticker.C

		r, ok := e.rooms.Get(code)
		if !ok {
			return // room torn down mid-turn
		}
		if e.fights.InFight(code, p.Username) {
			// A fight pauses the intent; the fight-end handler decides how
			// the turn continues.
			return
		}
		b, ok := e.boards.Board(code)
		if !ok {
			return
		}
		cur, ok := b.FindAvatar(p.Username)
		if !ok {
			return
		}

		switch state {
		case phaseDeciding:
			if p.Inventory.Full() && e.rng.Intn(100) < e.cfg.ItemThrowChance {
				if id, ok := p.Inventory.First(); ok {
					e.actions.ThrowItem(code, p, id)
				}
			}
			if fought := e.checkAndPerformAction(code, p, b, cur); fought {
				return
			}
			dest, haveDest = e.decide(b, r, p, cur)
			log.Debug("bot intent chosen",
				zap.Int("destRow", dest.Row), zap.Int("destCol", dest.Col),
				zap.Bool("haveDest", haveDest))
			if !haveDest || dest == cur {
				state = phaseActingOnArrival
				continue
			}
			state = phaseMoving

		case phaseMoving:
			if cur == dest {
				state = phaseActingOnArrival
				continue
			}
			path := pathfind.FindPath(b, cur, dest)
			if len(path) < 2 {
				state = phaseActingOnArrival
				continue
			}
			next := path[1]
			tile, _ := b.At(next)
			cost := tile.StepCost()
			if cost > p.RemainingSpeed {
				state = phaseActingOnArrival
				continue
			}
			out := e.actions.MoveStep(code, p, next)
			if !out.Moved || out.PickedItem {
				state = phaseActingOnArrival
				continue
			}
			if tile.Terrain == board.TerrainIce &&
				!p.Inventory.Holds(item.SpeedSkates) &&
				e.rng.Intn(100) < e.cfg.IceStopChance {
				log.Debug("bot slipped to a stop on ice")
				state = phaseActingOnArrival
			}

		case phaseActingOnArrival:
			if fought := e.checkAndPerformAction(code, p, b, cur); fought {
				return
			}
			state = phaseDone
		}
	}

	// The turn may have been handed off while the activation ran (player
	// removal, game over); end it only while the action is still owed.
	if !r.BotActionOwed(p.Username) {
		return
	}
	r.SetBotActionOwed(p.Username, false)
	e.actions.EndTurn(code)
}

// decide routes to the profile policy.
func (e *Engine) decide(b *board.Board, r *room.Room, p *player.Player, cur board.Position) (board.Position, bool) {
	others := r.Players()
	if p.Profile == player.ProfileDefensive {
		return defensiveDest(b, p, cur, others)
	}
	return aggressiveDest(b, p, cur, others)
}

// checkAndPerformAction scans the four neighbors in fixed order and acts on
// the first avatar or door (either state) found, then stops. A master key
// makes door use free, so the scan continues past a toggled door.
//
// Postcondition: Returns true when a fight was started; the caller must then
// abandon the rest of the turn.
func (e *Engine) checkAndPerformAction(code string, p *player.Player, b *board.Board, cur board.Position) bool {
	for _, n := range cur.Neighbors4() {
		tile, ok := b.At(n)
		if !ok {
			continue
		}
		if tile.Avatar != "" && tile.Avatar != p.Username {
			e.actions.StartFight(code, p, tile.Avatar)
			return true
		}
		if tile.IsDoor() {
			e.actions.ToggleDoor(code, p, n)
			if p.Inventory.Holds(item.MasterKey) {
				continue
			}
			return false
		}
	}
	return false
}
