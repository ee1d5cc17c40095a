package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/combat"
	"github.com/gridfall/gridfall/internal/game/dice"
	"github.com/gridfall/gridfall/internal/game/player"
)

// fixedSrc returns val for every Intn call.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int { return f.val % n }

func newRoller(val int) *dice.Roller {
	return dice.NewLoggedRoller(fixedSrc{val: val}, zap.NewNop())
}

func makePlayer(name string, kind dice.Kind, stats character.Stats) *player.Player {
	return player.New(name, &character.Character{Stats: stats, Dice: kind})
}

// TestNewFight_DebugStats reproduces the documented debug scenario: an
// attack-dice attacker (atk 5 / def 3) against a defense-dice defender
// (atk 4 / def 6) yields post-roll 11/4 and 8/7.
func TestNewFight_DebugStats(t *testing.T) {
	attacker := makePlayer("alice", dice.KindAttack, character.Stats{Health: 4, Speed: 5, Attack: 5, Defense: 3})
	defender := makePlayer("bob", dice.KindDefense, character.Stats{Health: 4, Speed: 3, Attack: 4, Defense: 6})

	f := combat.NewFight("R1", attacker, defender, true, newRoller(0))

	a, ok := f.Combatant("alice")
	require.True(t, ok)
	assert.Equal(t, 11, a.Attack, "attack-dice debug offense: 5 + d6 max")
	assert.Equal(t, 4, a.Defense, "debug defense roll is 1: 3 + 1")

	b, ok := f.Combatant("bob")
	require.True(t, ok)
	assert.Equal(t, 8, b.Attack, "defense-dice debug offense: 4 + d4 max")
	assert.Equal(t, 7, b.Defense, "debug defense roll is 1: 6 + 1")
}

func TestNewFight_InitiativeBySpeed(t *testing.T) {
	fast := makePlayer("fast", dice.KindAttack, character.Stats{Speed: 6, Attack: 4, Defense: 4})
	slow := makePlayer("slow", dice.KindAttack, character.Stats{Speed: 3, Attack: 4, Defense: 4})

	// Slower player attacks; faster defender still acts first.
	f := combat.NewFight("R1", slow, fast, true, newRoller(0))
	assert.Equal(t, "fast", f.Current().Username())
	assert.Equal(t, "slow", f.Opponent().Username())
}

// TestNewFight_InitiativeTieFavorsAttacker: equal speed gives the original
// attacker the first round — a stable default, not a coin flip.
func TestNewFight_InitiativeTieFavorsAttacker(t *testing.T) {
	a := makePlayer("attacker", dice.KindAttack, character.Stats{Speed: 4, Attack: 4, Defense: 4})
	d := makePlayer("defender", dice.KindAttack, character.Stats{Speed: 4, Attack: 4, Defense: 4})

	f := combat.NewFight("R1", a, d, true, newRoller(0))
	assert.Equal(t, "attacker", f.Current().Username())
}

func TestNewFight_IncrementsCombatCounters(t *testing.T) {
	a := makePlayer("a", dice.KindAttack, character.Stats{Speed: 4})
	d := makePlayer("d", dice.KindAttack, character.Stats{Speed: 4})

	combat.NewFight("R1", a, d, true, newRoller(0))
	assert.Equal(t, 1, a.Counters.Combats)
	assert.Equal(t, 1, d.Counters.Combats)
}

func TestFight_AdvanceTurn(t *testing.T) {
	a := makePlayer("a", dice.KindAttack, character.Stats{Speed: 5})
	d := makePlayer("d", dice.KindAttack, character.Stats{Speed: 4})
	f := combat.NewFight("R1", a, d, true, newRoller(0))

	assert.Equal(t, "a", f.Current().Username())
	f.AdvanceTurn()
	assert.Equal(t, "d", f.Current().Username())
	f.AdvanceTurn()
	assert.Equal(t, "a", f.Current().Username())
}

func TestFight_AutoAttack(t *testing.T) {
	// Debug rolls: attacker 5+6=11 attack, defender 3+1=4 defense → hit.
	a := makePlayer("a", dice.KindAttack, character.Stats{Speed: 5, Attack: 5, Defense: 3})
	d := makePlayer("d", dice.KindAttack, character.Stats{Speed: 4, Attack: 1, Defense: 3})
	f := combat.NewFight("R1", a, d, true, newRoller(0))

	res := f.AutoAttack()
	assert.True(t, res.Hit)
	assert.Equal(t, "a", res.Attacker)
	assert.Equal(t, "d", res.Target)
	assert.Equal(t, 1, a.Counters.PointsTaken)
	assert.Equal(t, 1, d.Counters.PointsLost)

	// Defender's round: attack 1+6=7 vs defense 3+1=4 → also a hit.
	f.AdvanceTurn()
	res = f.AutoAttack()
	assert.True(t, res.Hit)
	assert.Equal(t, "d", res.Attacker)
}

func TestFight_AutoAttack_Miss(t *testing.T) {
	// Attacker post-roll attack 1+6=7 vs defender post-roll defense 9+1=10.
	a := makePlayer("a", dice.KindAttack, character.Stats{Speed: 5, Attack: 1})
	d := makePlayer("d", dice.KindAttack, character.Stats{Speed: 4, Defense: 9})
	f := combat.NewFight("R1", a, d, true, newRoller(0))

	res := f.AutoAttack()
	assert.False(t, res.Hit)
	assert.Zero(t, a.Counters.PointsTaken)
	assert.Zero(t, d.Counters.PointsLost)
}

// TestFight_EscapeBudget: two escapes per combatant, never negative, and
// the budget resets with each new fight.
func TestFight_EscapeBudget(t *testing.T) {
	a := makePlayer("a", dice.KindAttack, character.Stats{Speed: 5})
	d := makePlayer("d", dice.KindAttack, character.Stats{Speed: 4})
	f := combat.NewFight("R1", a, d, true, newRoller(0))

	assert.True(t, f.Escape("a"))
	assert.True(t, f.Escape("a"))
	assert.False(t, f.Escape("a"), "third escape must fail")
	c, _ := f.Combatant("a")
	assert.Zero(t, c.EscapesLeft, "budget must floor at zero")
	assert.Equal(t, 2, a.Counters.Escapes)

	// Not a combatant.
	assert.False(t, f.Escape("zz"))

	// A fresh fight restores the budget.
	f2 := combat.NewFight("R1", a, d, true, newRoller(0))
	c2, _ := f2.Combatant("a")
	assert.Equal(t, combat.EscapeAttempts, c2.EscapesLeft)
}

func TestEngine_Lifecycle(t *testing.T) {
	eng := combat.NewEngine(newRoller(0))
	a := makePlayer("a", dice.KindAttack, character.Stats{Speed: 5})
	d := makePlayer("d", dice.KindAttack, character.Stats{Speed: 4})

	f, err := eng.Begin("R1", a, d, true)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.NotEmpty(t, f.ID)

	_, err = eng.Begin("R1", a, d, true)
	require.Error(t, err, "second fight in the same room must be rejected")

	got, ok := eng.Fight("R1")
	require.True(t, ok)
	assert.Same(t, f, got)

	assert.True(t, eng.InFight("R1", "a"))
	assert.False(t, eng.InFight("R1", "zz"))
	assert.False(t, eng.InFight("R2", "a"))

	eng.End("R1")
	_, ok = eng.Fight("R1")
	assert.False(t, ok)
	eng.End("R1") // idempotent
}

// TestFight_PostRollBounds_Property: post-roll stats always sit within the
// die bounds above the base stats, in both debug and random mode.
func TestFight_PostRollBounds_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		atkStat := rapid.IntRange(0, 10).Draw(rt, "atk")
		defStat := rapid.IntRange(0, 10).Draw(rt, "def")
		kind := rapid.SampledFrom([]dice.Kind{dice.KindAttack, dice.KindDefense}).Draw(rt, "kind")
		debug := rapid.Bool().Draw(rt, "debug")
		seed := rapid.IntRange(0, 1<<20).Draw(rt, "seed")

		p := makePlayer("p", kind, character.Stats{Speed: 4, Attack: atkStat, Defense: defStat})
		q := makePlayer("q", dice.KindAttack, character.Stats{Speed: 3})
		f := combat.NewFight("R1", p, q, debug, dice.NewLoggedRoller(fixedSrc{val: seed}, zap.NewNop()))

		c, ok := f.Combatant("p")
		require.True(rt, ok)
		assert.GreaterOrEqual(rt, c.Attack, atkStat+1)
		assert.LessOrEqual(rt, c.Attack, atkStat+kind.OffenseSides())
		assert.GreaterOrEqual(rt, c.Defense, defStat+1)
		assert.LessOrEqual(rt, c.Defense, defStat+kind.DefenseSides())
	})
}
