package room_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/player"
	"github.com/gridfall/gridfall/internal/game/room"
)

func makePlayers(names ...string) []*player.Player {
	out := make([]*player.Player, len(names))
	for i, n := range names {
		out[i] = player.New(n, &character.Character{})
	}
	return out
}

func TestRoom_ActiveAndAdvance(t *testing.T) {
	r := room.New("R1")
	r.SetPlayers(makePlayers("a", "b", "c"))

	p, idx := r.ActivePlayer()
	require.NotNil(t, p)
	assert.Equal(t, "a", p.Username)
	assert.Equal(t, 0, idx)

	assert.Equal(t, "b", r.Advance().Username)
	assert.Equal(t, "c", r.Advance().Username)
	// Wrap-around.
	assert.Equal(t, "a", r.Advance().Username)
}

func TestRoom_EmptyRoom(t *testing.T) {
	r := room.New("R1")
	p, idx := r.ActivePlayer()
	assert.Nil(t, p)
	assert.Equal(t, -1, idx)
	assert.Nil(t, r.Advance())
}

// TestRoom_RemoveBeforeActive: removing a player whose index precedes the
// active one decrements the pointer so it tracks the same logical player.
func TestRoom_RemoveBeforeActive(t *testing.T) {
	r := room.New("R1")
	r.SetPlayers(makePlayers("a", "b", "c"))
	r.Advance() // active = b (index 1)

	require.True(t, r.Remove("a"))
	p, idx := r.ActivePlayer()
	assert.Equal(t, "b", p.Username, "active player must not change")
	assert.Equal(t, 0, idx)
}

// TestRoom_RemoveAfterActive: removing a later player leaves the pointer alone.
func TestRoom_RemoveAfterActive(t *testing.T) {
	r := room.New("R1")
	r.SetPlayers(makePlayers("a", "b", "c"))
	r.Advance() // active = b

	require.True(t, r.Remove("c"))
	p, idx := r.ActivePlayer()
	assert.Equal(t, "b", p.Username)
	assert.Equal(t, 1, idx)
}

// TestRoom_RemoveActiveLast: removing the active player at the end of the
// list wraps the pointer to index 0.
func TestRoom_RemoveActiveLast(t *testing.T) {
	r := room.New("R1")
	r.SetPlayers(makePlayers("a", "b", "c"))
	r.Advance()
	r.Advance() // active = c (index 2)

	require.True(t, r.Remove("c"))
	p, idx := r.ActivePlayer()
	assert.Equal(t, "a", p.Username)
	assert.Equal(t, 0, idx)
}

func TestRoom_RemoveUnknown(t *testing.T) {
	r := room.New("R1")
	r.SetPlayers(makePlayers("a"))
	assert.False(t, r.Remove("zz"))
}

func TestRoom_HumanCount(t *testing.T) {
	r := room.New("R1")
	players := makePlayers("a", "b")
	bot := player.NewVirtual("bot1", player.ProfileAggressive, &character.Character{})
	r.SetPlayers(append(players, bot))

	assert.Equal(t, 2, r.HumanCount())
	require.True(t, r.Remove("a"))
	require.True(t, r.Remove("b"))
	assert.Equal(t, 0, r.HumanCount(), "bots alone leave no humans")
}

// TestRoom_TurnTransitionGuard: only one of many concurrent transition
// attempts may win; the rest are absorbed.
func TestRoom_TurnTransitionGuard(t *testing.T) {
	r := room.New("R1")
	r.SetPlayers(makePlayers("a", "b"))

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.BeginTurnTransition() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one transition may begin while the guard is held")

	r.EndTurnTransition()
	assert.True(t, r.BeginTurnTransition(), "guard must reopen after EndTurnTransition")
}

func TestRoom_BotActionOwed(t *testing.T) {
	r := room.New("R1")
	assert.False(t, r.BotActionOwed("bot1"))
	r.SetBotActionOwed("bot1", true)
	assert.True(t, r.BotActionOwed("bot1"))
	r.SetBotActionOwed("bot1", false)
	assert.False(t, r.BotActionOwed("bot1"))
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg := room.NewRegistry()

	r, err := reg.Create("R1")
	require.NoError(t, err)
	assert.Equal(t, "R1", r.Code)

	_, err = reg.Create("R1")
	require.Error(t, err, "duplicate code must be rejected")

	got, ok := reg.Get("R1")
	require.True(t, ok)
	assert.Same(t, r, got)

	same := reg.GetOrCreate("R1")
	assert.Same(t, r, same)
	fresh := reg.GetOrCreate("R2")
	assert.Equal(t, "R2", fresh.Code)

	assert.ElementsMatch(t, []string{"R1", "R2"}, reg.Codes())

	reg.Remove("R1")
	_, ok = reg.Get("R1")
	assert.False(t, ok)
}
