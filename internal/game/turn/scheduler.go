package turn

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridfall/gridfall/internal/game/player"
	"github.com/gridfall/gridfall/internal/game/room"
)

// Outbound event names emitted by the scheduler.
const (
	EventActivePlayerUpdate   = "active-player-update"
	EventTurnTimeLeftUpdate   = "turn-time-left-update"
	EventNotificationTimeLeft = "notification-time-left-update"
	EventRoundTimeLeftUpdate  = "round-time-left-update"
)

// ActivePlayerPayload is the body of an active-player-update event.
type ActivePlayerPayload struct {
	ActivePlayer string `json:"activePlayer"`
	TurnIndex    int    `json:"turnIndex"`
}

// TimeLeftPayload is the body of every countdown broadcast.
type TimeLeftPayload struct {
	Seconds int `json:"seconds"`
}

// Broadcaster sends an event to every client in a room.
type Broadcaster interface {
	EmitToRoom(roomCode, event string, payload any)
}

// RoomProvider looks up live rooms. Satisfied by *room.Registry.
type RoomProvider interface {
	Get(code string) (*room.Room, bool)
}

// Source is the randomness provider for bot activation jitter.
type Source interface {
	Intn(n int) int
}

// Config carries the scheduler timing parameters.
type Config struct {
	TurnSeconds          int
	NotificationSeconds  int
	RoundSeconds         int
	RoundSecondsNoEscape int
	// TickInterval is the wall-clock length of one countdown second.
	TickInterval   time.Duration
	TurnGuardDelay time.Duration
	BotJitterMin   time.Duration
	BotJitterMax   time.Duration
}

// Scheduler drives whose turn it is in every room: the notification phase,
// the turn countdown, and the combat round countdown while a fight runs.
// All methods are safe for concurrent use.
//
// A room never runs a turn countdown and a round countdown at the same
// time: starting a fight pauses the turn timer, ending one triggers exactly
// one resume-or-advance decision (made by the orchestrating handler).
type Scheduler struct {
	log   *zap.Logger
	cfg   Config
	emit  Broadcaster
	rooms RoomProvider
	rng   Source

	// onBotTurn runs a virtual player's decision engine; set by the
	// composition root after construction to keep the dependency graph a
	// star rather than a cycle.
	onBotTurn func(roomCode string, p *player.Player)
	// onRoundExpire fires the automatic attack when a combat round runs out.
	onRoundExpire func(roomCode string)

	mu     sync.Mutex
	turns  map[string]*Countdown
	notifs map[string]*Countdown
	rounds map[string]*Countdown
}

// NewScheduler creates a Scheduler.
//
// Precondition: all arguments must be non-nil; cfg must be validated.
func NewScheduler(cfg Config, log *zap.Logger, emit Broadcaster, rooms RoomProvider, rng Source) *Scheduler {
	return &Scheduler{
		log:    log,
		cfg:    cfg,
		emit:   emit,
		rooms:  rooms,
		rng:    rng,
		turns:  make(map[string]*Countdown),
		notifs: make(map[string]*Countdown),
		rounds: make(map[string]*Countdown),
	}
}

// SetBotActivator installs the virtual-player activation hook.
func (s *Scheduler) SetBotActivator(fn func(roomCode string, p *player.Player)) {
	s.onBotTurn = fn
}

// SetRoundExpiryHandler installs the combat-round expiry hook.
func (s *Scheduler) SetRoundExpiryHandler(fn func(roomCode string)) {
	s.onRoundExpire = fn
}

// StartGame announces the first active player and begins its notification
// phase. A missing room is a no-op.
func (s *Scheduler) StartGame(code string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	active, idx := r.ActivePlayer()
	if active == nil {
		return
	}
	active.ResetTurn()
	s.emit.EmitToRoom(code, EventActivePlayerUpdate, ActivePlayerPayload{
		ActivePlayer: active.Username,
		TurnIndex:    idx,
	})
	s.beginNotification(code, active)
}

// beginNotification runs the pre-turn delay. When the incoming active
// player is virtual, its decision engine is scheduled with a randomized
// jitter inside this phase.
func (s *Scheduler) beginNotification(code string, active *player.Player) {
	c := NewCountdown(s.cfg.NotificationSeconds, s.cfg.TickInterval,
		func(seconds int) {
			s.emit.EmitToRoom(code, EventNotificationTimeLeft, TimeLeftPayload{Seconds: seconds})
		},
		func() {
			s.startTurnCountdown(code)
		},
	)

	s.mu.Lock()
	if old, ok := s.notifs[code]; ok {
		old.Stop()
	}
	s.notifs[code] = c
	s.mu.Unlock()
	c.Start()

	if active.IsVirtual {
		// The action is owed from the moment the turn begins, not from the
		// moment the decision engine starts: a fight that lands during the
		// notification phase must still leave the bot's intent pending.
		if r, ok := s.rooms.Get(code); ok {
			r.SetBotActionOwed(active.Username, true)
		}
		username := active.Username
		time.AfterFunc(s.botJitter(), func() {
			// The room may have been torn down, or the turn may have moved
			// on, while this was pending.
			r, ok := s.rooms.Get(code)
			if !ok || s.onBotTurn == nil {
				return
			}
			current, _ := r.ActivePlayer()
			if current == nil || current.Username != username {
				return
			}
			s.onBotTurn(code, current)
		})
	}
}

func (s *Scheduler) botJitter() time.Duration {
	span := s.cfg.BotJitterMax - s.cfg.BotJitterMin
	if span <= 0 {
		return s.cfg.BotJitterMin
	}
	return s.cfg.BotJitterMin + time.Duration(s.rng.Intn(int(span)))
}

// startTurnCountdown begins the movement-phase countdown for the active player.
func (s *Scheduler) startTurnCountdown(code string) {
	if _, ok := s.rooms.Get(code); !ok {
		return
	}
	c := NewCountdown(s.cfg.TurnSeconds, s.cfg.TickInterval,
		func(seconds int) {
			s.emit.EmitToRoom(code, EventTurnTimeLeftUpdate, TimeLeftPayload{Seconds: seconds})
		},
		func() {
			s.EndTurn(code)
		},
	)

	s.mu.Lock()
	if old, ok := s.turns[code]; ok {
		old.Stop()
	}
	s.turns[code] = c
	s.mu.Unlock()
	c.Start()
}

// EndTurn advances the room to the next player in the fixed order. The
// room's turn-in-progress guard absorbs overlapping triggers (timer expiry
// racing a manual end-turn): the transition is strictly serialized.
//
// A missing room is a no-op.
func (s *Scheduler) EndTurn(code string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	if !r.BeginTurnTransition() {
		s.log.Debug("end-turn absorbed by in-progress guard", zap.String("room", code))
		return
	}
	time.AfterFunc(s.cfg.TurnGuardDelay, r.EndTurnTransition)

	s.stopCountdown(s.turns, code)
	s.stopCountdown(s.notifs, code)

	next := r.Advance()
	if next == nil {
		return
	}
	next.ResetTurn()
	_, idx := r.ActivePlayer()
	s.emit.EmitToRoom(code, EventActivePlayerUpdate, ActivePlayerPayload{
		ActivePlayer: next.Username,
		TurnIndex:    idx,
	})
	s.beginNotification(code, next)
}

// PauseTurn suspends the room's turn-phase countdowns, preserving the exact
// remaining seconds. Called when a fight starts.
func (s *Scheduler) PauseTurn(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.turns[code]; ok {
		c.Pause()
	}
	if c, ok := s.notifs[code]; ok {
		c.Pause()
	}
}

// ResumeTurn restarts the countdowns suspended by PauseTurn from their
// captured values.
func (s *Scheduler) ResumeTurn(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.notifs[code]; ok {
		c.Resume()
	}
	if c, ok := s.turns[code]; ok {
		c.Resume()
	}
}

// TurnRemaining returns the seconds left on the room's turn countdown.
//
// Postcondition: Returns (seconds, true) when a turn countdown exists.
func (s *Scheduler) TurnRemaining(code string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.turns[code]
	if !ok {
		return 0, false
	}
	return c.Remaining(), true
}

// StartRound begins a combat round countdown. The duration depends on
// whether the active combatant still has escape attempts: the full round
// length while attempts remain, the reduced one once exhausted.
func (s *Scheduler) StartRound(code string, escapesRemain bool) {
	if _, ok := s.rooms.Get(code); !ok {
		return
	}
	seconds := s.cfg.RoundSeconds
	if !escapesRemain {
		seconds = s.cfg.RoundSecondsNoEscape
	}
	c := NewCountdown(seconds, s.cfg.TickInterval,
		func(left int) {
			s.emit.EmitToRoom(code, EventRoundTimeLeftUpdate, TimeLeftPayload{Seconds: left})
		},
		func() {
			if _, ok := s.rooms.Get(code); !ok {
				return
			}
			if s.onRoundExpire != nil {
				s.onRoundExpire(code)
			}
		},
	)

	s.mu.Lock()
	if old, ok := s.rounds[code]; ok {
		old.Stop()
	}
	s.rounds[code] = c
	s.mu.Unlock()
	c.Start()
}

// StopRound cancels the room's combat round countdown.
func (s *Scheduler) StopRound(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked(s.rounds, code)
}

// StopTurnTimers cancels the room's turn and notification countdowns.
func (s *Scheduler) StopTurnTimers(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked(s.turns, code)
	s.stopCountdownLocked(s.notifs, code)
}

// StopAll synchronously cancels every countdown for the room. Part of room
// teardown; a canceled countdown never fires afterward.
func (s *Scheduler) StopAll(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked(s.turns, code)
	s.stopCountdownLocked(s.notifs, code)
	s.stopCountdownLocked(s.rounds, code)
}

func (s *Scheduler) stopCountdown(m map[string]*Countdown, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked(m, code)
}

func (s *Scheduler) stopCountdownLocked(m map[string]*Countdown, code string) {
	if c, ok := m[code]; ok {
		c.Stop()
		delete(m, code)
	}
}
