// Package combat implements dice-based fight resolution: post-roll stats,
// initiative, escape accounting, and the automatic attack fired on combat
// round expiry.
package combat

import (
	"github.com/google/uuid"

	"github.com/gridfall/gridfall/internal/game/dice"
	"github.com/gridfall/gridfall/internal/game/player"
)

// EscapeAttempts is the per-combatant escape budget for one fight.
const EscapeAttempts = 2

// Combatant is one participant's fight-local state. Attack and Defense are
// the post-roll values computed once at fight start.
type Combatant struct {
	Player      *player.Player
	Attack      int
	Defense     int
	AttackRoll  int
	DefenseRoll int
	EscapesLeft int
}

// Username returns the combatant's username.
func (c *Combatant) Username() string { return c.Player.Username }

// Fight holds the live state of a single two-player fight in a room.
type Fight struct {
	// ID is a unique fight identifier for log correlation.
	ID string
	// Room is the room where this fight takes place.
	Room string
	// Combatants is the initiative-ordered pair; index 0 acts first.
	Combatants [2]*Combatant
	// turnIndex is the index of the combatant whose round it is.
	turnIndex int
}

// NewFight computes post-roll stats for both players and orders them by
// initiative: higher speed acts first, and the originally-attacking player
// wins ties. Debug-mode rooms substitute the deterministic roll values.
//
// Precondition: attacker and defender must be distinct non-nil players with
// characters; roller must be non-nil.
// Postcondition: Both players' Combats counters are incremented; each
// combatant starts with EscapeAttempts escapes.
func NewFight(roomCode string, attacker, defender *player.Player, debug bool, roller *dice.Roller) *Fight {
	a := rollCombatant(attacker, debug, roller)
	d := rollCombatant(defender, debug, roller)

	attacker.Counters.Combats++
	defender.Counters.Combats++

	first, second := a, d
	if defender.Character.Stats.Speed > attacker.Character.Stats.Speed {
		first, second = d, a
	}

	return &Fight{
		ID:         uuid.New().String(),
		Room:       roomCode,
		Combatants: [2]*Combatant{first, second},
	}
}

func rollCombatant(p *player.Player, debug bool, roller *dice.Roller) *Combatant {
	kind := p.Character.Dice
	atkRoll := roller.Offense(kind, debug)
	defRoll := roller.Defense(kind, debug)
	return &Combatant{
		Player:      p,
		Attack:      p.Character.Stats.Attack + atkRoll,
		Defense:     p.Character.Stats.Defense + defRoll,
		AttackRoll:  atkRoll,
		DefenseRoll: defRoll,
		EscapesLeft: EscapeAttempts,
	}
}

// Current returns the combatant whose round it is.
func (f *Fight) Current() *Combatant { return f.Combatants[f.turnIndex] }

// Opponent returns the combatant who is not currently acting.
func (f *Fight) Opponent() *Combatant { return f.Combatants[1-f.turnIndex] }

// AdvanceTurn hands the round to the other combatant.
func (f *Fight) AdvanceTurn() { f.turnIndex = 1 - f.turnIndex }

// Combatant returns the fight-local state for username.
//
// Postcondition: Returns (combatant, true) if username fights here, or
// (nil, false) otherwise.
func (f *Fight) Combatant(username string) (*Combatant, bool) {
	for _, c := range f.Combatants {
		if c.Username() == username {
			return c, true
		}
	}
	return nil, false
}

// Involves reports whether username is one of the combatants.
func (f *Fight) Involves(username string) bool {
	_, ok := f.Combatant(username)
	return ok
}

// AttackResult is the outcome of one automatic attack.
type AttackResult struct {
	Attacker string
	Target   string
	Hit      bool
}

// AutoAttack resolves the current combatant's automatic attack against the
// opponent: a hit when post-roll attack exceeds post-roll defense, worth a
// fixed 1 point. Health bookkeeping is the surrounding game loop's concern.
//
// Postcondition: On a hit, the actor's PointsTaken and the target's
// PointsLost counters are each incremented by 1.
func (f *Fight) AutoAttack() AttackResult {
	actor := f.Current()
	target := f.Opponent()
	hit := actor.Attack > target.Defense
	if hit {
		actor.Player.Counters.PointsTaken++
		target.Player.Counters.PointsLost++
	}
	return AttackResult{
		Attacker: actor.Username(),
		Target:   target.Username(),
		Hit:      hit,
	}
}

// Escape consumes one of username's escape attempts. Escape always succeeds
// while attempts remain; the per-round rate limit is the scheduler's round
// timer, not this method.
//
// Postcondition: Returns false when username is not fighting here or has no
// attempts left; the budget never goes negative. On success the player's
// Escapes counter is incremented.
func (f *Fight) Escape(username string) bool {
	c, ok := f.Combatant(username)
	if !ok || c.EscapesLeft <= 0 {
		return false
	}
	c.EscapesLeft--
	c.Player.Counters.Escapes++
	return true
}
