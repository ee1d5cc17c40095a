package turn_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/player"
	"github.com/gridfall/gridfall/internal/game/room"
	"github.com/gridfall/gridfall/internal/game/turn"
)

// recorder captures every broadcast for later inspection.
type recorder struct {
	mu     sync.Mutex
	events []recorded
}

type recorded struct {
	Room    string
	Event   string
	Payload any
}

func (r *recorder) EmitToRoom(roomCode, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{Room: roomCode, Event: event, Payload: payload})
}

func (r *recorder) ofType(event string) []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recorded
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count(event string) int { return len(r.ofType(event)) }

type zeroSrc struct{}

func (zeroSrc) Intn(n int) int { return 0 }

func fastConfig() turn.Config {
	return turn.Config{
		TurnSeconds:          2,
		NotificationSeconds:  1,
		RoundSeconds:         5,
		RoundSecondsNoEscape: 3,
		TickInterval:         2 * time.Millisecond,
		TurnGuardDelay:       time.Millisecond,
		BotJitterMin:         time.Millisecond,
		BotJitterMax:         time.Millisecond,
	}
}

func newTestRoom(t *testing.T, reg *room.Registry, code string, players ...*player.Player) *room.Room {
	t.Helper()
	r, err := reg.Create(code)
	require.NoError(t, err)
	r.SetPlayers(players)
	return r
}

func humanPlayer(name string, speed int) *player.Player {
	return player.New(name, &character.Character{Stats: character.Stats{Health: 4, Speed: speed, Attack: 4, Defense: 4}})
}

func TestScheduler_StartGameAnnouncesFirstPlayer(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5), humanPlayer("bob", 3))
	s := turn.NewScheduler(fastConfig(), zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	s.StartGame("R1")

	updates := rec.ofType(turn.EventActivePlayerUpdate)
	require.NotEmpty(t, updates)
	got := updates[0].Payload.(turn.ActivePlayerPayload)
	assert.Equal(t, "alice", got.ActivePlayer)
	assert.Zero(t, got.TurnIndex)

	// The notification phase hands over to the turn countdown.
	require.Eventually(t, func() bool {
		return rec.count(turn.EventTurnTimeLeftUpdate) > 0
	}, 2*time.Second, time.Millisecond)
}

// TestScheduler_TurnExpiryAdvances: when the active player's timer runs out
// with no action taken, the turn passes to the next player in order.
func TestScheduler_TurnExpiryAdvances(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5), humanPlayer("bob", 3))
	s := turn.NewScheduler(fastConfig(), zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	s.StartGame("R1")

	require.Eventually(t, func() bool {
		updates := rec.ofType(turn.EventActivePlayerUpdate)
		if len(updates) < 2 {
			return false
		}
		got := updates[1].Payload.(turn.ActivePlayerPayload)
		return got.ActivePlayer == "bob" && got.TurnIndex == 1
	}, 2*time.Second, time.Millisecond, "expiry must hand the turn to bob")
}

// TestScheduler_EndTurnGuardAbsorbsDoubleTrigger: a manual end-turn racing
// the timer expiry must advance the turn exactly once.
func TestScheduler_EndTurnGuardAbsorbsDoubleTrigger(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	r := newTestRoom(t, reg, "R1", humanPlayer("alice", 5), humanPlayer("bob", 3))
	cfg := fastConfig()
	cfg.TickInterval = time.Hour // freeze the countdowns out of the picture
	cfg.TurnGuardDelay = time.Minute
	s := turn.NewScheduler(cfg, zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.EndTurn("R1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rec.count(turn.EventActivePlayerUpdate), "only one trigger may advance the turn")
	active, idx := r.ActivePlayer()
	assert.Equal(t, "bob", active.Username)
	assert.Equal(t, 1, idx)
}

func TestScheduler_EndTurnUnknownRoom(t *testing.T) {
	rec := &recorder{}
	s := turn.NewScheduler(fastConfig(), zap.NewNop(), rec, room.NewRegistry(), zeroSrc{})

	s.EndTurn("nope")
	s.StartGame("nope")
	s.StartRound("nope", true)

	assert.Empty(t, rec.ofType(turn.EventActivePlayerUpdate))
	assert.Empty(t, rec.ofType(turn.EventRoundTimeLeftUpdate))
}

func TestScheduler_PauseAndResumeTurn(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5))
	cfg := fastConfig()
	cfg.TurnSeconds = 500 // long enough to still be ticking when paused
	s := turn.NewScheduler(cfg, zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	s.StartGame("R1")
	require.Eventually(t, func() bool {
		_, ok := s.TurnRemaining("R1")
		return ok
	}, 2*time.Second, time.Millisecond)

	s.PauseTurn("R1")
	frozen, ok := s.TurnRemaining("R1")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	got, _ := s.TurnRemaining("R1")
	assert.Equal(t, frozen, got, "a paused turn countdown must not move")

	s.ResumeTurn("R1")
	require.Eventually(t, func() bool {
		got, _ := s.TurnRemaining("R1")
		return got < frozen
	}, 2*time.Second, time.Millisecond, "resumed countdown must continue from the paused value")
}

func TestScheduler_RoundDurationDependsOnEscapes(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5))
	cfg := fastConfig()
	cfg.TickInterval = time.Hour // only the initial report fires
	s := turn.NewScheduler(cfg, zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	s.StartRound("R1", true)
	updates := rec.ofType(turn.EventRoundTimeLeftUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, cfg.RoundSeconds, updates[0].Payload.(turn.TimeLeftPayload).Seconds)

	s.StartRound("R1", false)
	updates = rec.ofType(turn.EventRoundTimeLeftUpdate)
	require.Len(t, updates, 2)
	assert.Equal(t, cfg.RoundSecondsNoEscape, updates[1].Payload.(turn.TimeLeftPayload).Seconds,
		"an exhausted escape budget shortens the round")
}

func TestScheduler_RoundExpiryFiresHandler(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5))
	cfg := fastConfig()
	cfg.RoundSecondsNoEscape = 1
	s := turn.NewScheduler(cfg, zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	fired := make(chan string, 1)
	s.SetRoundExpiryHandler(func(code string) { fired <- code })

	s.StartRound("R1", false)
	select {
	case code := <-fired:
		assert.Equal(t, "R1", code)
	case <-time.After(2 * time.Second):
		t.Fatal("round expiry handler never fired")
	}
}

func TestScheduler_StopRoundCancels(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5))
	cfg := fastConfig()
	cfg.RoundSecondsNoEscape = 2
	s := turn.NewScheduler(cfg, zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	fired := make(chan string, 1)
	s.SetRoundExpiryHandler(func(code string) { fired <- code })

	s.StartRound("R1", false)
	s.StopRound("R1")

	select {
	case <-fired:
		t.Fatal("canceled round must not expire")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_BotActivation(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	bot := player.NewVirtual("cpu-1", player.ProfileAggressive,
		&character.Character{Stats: character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}})
	newTestRoom(t, reg, "R1", bot, humanPlayer("alice", 5))
	s := turn.NewScheduler(fastConfig(), zap.NewNop(), rec, reg, zeroSrc{})
	defer s.StopAll("R1")

	activated := make(chan string, 1)
	s.SetBotActivator(func(code string, p *player.Player) {
		activated <- p.Username
	})

	s.StartGame("R1")
	select {
	case name := <-activated:
		assert.Equal(t, "cpu-1", name)
	case <-time.After(2 * time.Second):
		t.Fatal("virtual player was never activated")
	}
}

func TestScheduler_StopAllSilencesRoom(t *testing.T) {
	rec := &recorder{}
	reg := room.NewRegistry()
	newTestRoom(t, reg, "R1", humanPlayer("alice", 5), humanPlayer("bob", 3))
	s := turn.NewScheduler(fastConfig(), zap.NewNop(), rec, reg, zeroSrc{})

	s.StartGame("R1")
	s.StartRound("R1", true)
	s.StopAll("R1")

	// Let any in-flight tick drain, then verify silence.
	time.Sleep(10 * time.Millisecond)
	rec.mu.Lock()
	before := len(rec.events)
	rec.mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	rec.mu.Lock()
	after := len(rec.events)
	rec.mu.Unlock()
	assert.Equal(t, before, after, "a torn-down room must emit nothing")

	_, ok := s.TurnRemaining("R1")
	assert.False(t, ok)
}
