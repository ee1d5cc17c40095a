package player_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/item"
	"github.com/gridfall/gridfall/internal/game/player"
)

func newCharacter(speed int) *character.Character {
	return &character.Character{
		Stats: character.Stats{Health: 4, Speed: speed, Attack: 4, Defense: 4},
	}
}

func TestResetTurnTracksCurrentSpeed(t *testing.T) {
	p := player.New("alice", newCharacter(5))
	assert.Zero(t, p.RemainingSpeed, "no budget before the first turn")

	p.ResetTurn()
	assert.Equal(t, 5, p.RemainingSpeed)

	// Speed changed mid-game by an item effect; the next turn sees it.
	p.Character.Stats.Speed = 7
	p.RemainingSpeed = 1
	p.ResetTurn()
	assert.Equal(t, 7, p.RemainingSpeed)
}

func TestNewVirtualCarriesProfile(t *testing.T) {
	p := player.NewVirtual("cpu-1", player.ProfileAggressive, newCharacter(3))
	assert.True(t, p.IsVirtual)
	assert.Equal(t, player.ProfileAggressive, p.Profile)

	human := player.New("alice", newCharacter(3))
	assert.False(t, human.IsVirtual)
	assert.Empty(t, human.Profile)
}

func TestHasFlag(t *testing.T) {
	p := player.New("alice", newCharacter(5))
	assert.False(t, p.HasFlag())

	require.True(t, p.Inventory.Add(item.Flag))
	assert.True(t, p.HasFlag())

	require.True(t, p.Inventory.Remove(item.Flag))
	assert.False(t, p.HasFlag())
}
