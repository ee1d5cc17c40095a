package item_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/item"
)

// TestEffects_ApplyRevertRoundTrip: for every catalog item, apply followed
// by revert restores the stat block to its exact pre-apply values.
func TestEffects_ApplyRevertRoundTrip(t *testing.T) {
	for _, id := range item.All() {
		t.Run(string(id), func(t *testing.T) {
			e := item.NewEffects()
			stats := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}
			original := stats

			require.True(t, e.Apply(id, "alice", &stats))
			require.True(t, e.Revert(id, "alice", &stats))
			assert.Equal(t, original, stats, "%s: apply+revert must be net zero", id)
			assert.Zero(t, e.ActiveCount("alice"))
		})
	}
}

func TestEffects_GatedItems(t *testing.T) {
	e := item.NewEffects()

	// Power fruit applies only below 4 health.
	low := character.Stats{Health: 3, Speed: 4, Attack: 4, Defense: 4}
	require.True(t, e.Apply(item.PowerFruit, "alice", &low))
	assert.Equal(t, 8, low.Attack, "gate passes at health<4")
	require.True(t, e.Revert(item.PowerFruit, "alice", &low))
	assert.Equal(t, 4, low.Attack)

	high := character.Stats{Health: 6, Speed: 4, Attack: 4, Defense: 4}
	require.True(t, e.Apply(item.PowerFruit, "bob", &high))
	assert.Equal(t, 4, high.Attack, "gate fails at health>=4")
	require.True(t, e.Revert(item.PowerFruit, "bob", &high), "gated-out apply still pairs with revert")
	assert.Equal(t, 4, high.Attack)

	// Shield applies only below 4 speed.
	slow := character.Stats{Health: 4, Speed: 3, Attack: 4, Defense: 4}
	require.True(t, e.Apply(item.Shield, "carol", &slow))
	assert.Equal(t, 8, slow.Health)
}

func TestEffects_UnconditionalItems(t *testing.T) {
	e := item.NewEffects()
	stats := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}

	require.True(t, e.Apply(item.SpaceSword, "alice", &stats))
	assert.Equal(t, 6, stats.Attack)
	assert.Equal(t, 3, stats.Speed)

	require.True(t, e.Apply(item.Boots, "alice", &stats))
	assert.Equal(t, 5, stats.Speed)
	assert.Equal(t, 3, stats.Health)
	assert.Equal(t, 2, e.ActiveCount("alice"))
}

// TestEffects_DoubleApplyRejected: the tracker refuses a second apply of the
// same item before the first is reverted.
func TestEffects_DoubleApplyRejected(t *testing.T) {
	e := item.NewEffects()
	stats := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}

	require.True(t, e.Apply(item.Boots, "alice", &stats))
	assert.False(t, e.Apply(item.Boots, "alice", &stats))
	assert.Equal(t, 6, stats.Speed, "rejected apply must not touch stats")

	// A different holder is unaffected.
	other := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}
	assert.True(t, e.Apply(item.Boots, "bob", &other))
}

func TestEffects_RevertWithoutApplyRejected(t *testing.T) {
	e := item.NewEffects()
	stats := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}
	original := stats

	assert.False(t, e.Revert(item.Boots, "alice", &stats))
	assert.Equal(t, original, stats)
}

func TestEffects_UnknownItem(t *testing.T) {
	e := item.NewEffects()
	stats := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}
	assert.False(t, e.Apply("banana", "alice", &stats))
}

func TestEffects_Clear(t *testing.T) {
	e := item.NewEffects()
	stats := character.Stats{Health: 4, Speed: 4, Attack: 4, Defense: 4}
	require.True(t, e.Apply(item.Boots, "alice", &stats))

	e.Clear("alice")
	assert.Zero(t, e.ActiveCount("alice"))
	assert.False(t, e.Revert(item.Boots, "alice", &stats))
}

// TestEffects_RoundTrip_Property: any sequence of applies over distinct
// items, reverted in any order, restores the original stats.
func TestEffects_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfNDistinct(
			rapid.SampledFrom(item.All()), 1, len(item.All()),
			func(id item.ID) item.ID { return id },
		).Draw(rt, "ids")

		stats := character.Stats{
			Health:  rapid.IntRange(1, 10).Draw(rt, "health"),
			Speed:   rapid.IntRange(1, 10).Draw(rt, "speed"),
			Attack:  rapid.IntRange(1, 10).Draw(rt, "attack"),
			Defense: rapid.IntRange(1, 10).Draw(rt, "defense"),
		}
		original := stats

		e := item.NewEffects()
		for _, id := range ids {
			require.True(rt, e.Apply(id, "p", &stats))
		}
		// Revert in reverse application order.
		for i := len(ids) - 1; i >= 0; i-- {
			require.True(rt, e.Revert(ids[i], "p", &stats))
		}
		assert.Equal(rt, original, stats)
	})
}
