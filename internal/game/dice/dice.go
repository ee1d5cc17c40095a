// Package dice provides the randomness abstraction and the attack/defense
// die model used by the combat engine.
package dice

import "fmt"

// Kind is a character's dice assignment. Attack-dice characters roll a d6
// for offense and a d4 for defense; defense-dice characters roll the
// opposite.
type Kind string

const (
	KindAttack  Kind = "attack"
	KindDefense Kind = "defense"
)

// Valid reports whether k is a known dice kind.
func (k Kind) Valid() bool { return k == KindAttack || k == KindDefense }

// OffenseSides returns the die size rolled for attack.
//
// Precondition: k must be valid.
func (k Kind) OffenseSides() int {
	if k == KindAttack {
		return 6
	}
	return 4
}

// DefenseSides returns the die size rolled for defense.
//
// Precondition: k must be valid.
func (k Kind) DefenseSides() int {
	if k == KindAttack {
		return 4
	}
	return 6
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Roll returns a uniform value in [1, sides] drawn from src.
//
// Precondition: sides >= 1; src must be non-nil.
// Postcondition: 1 <= result <= sides.
func Roll(sides int, src Source) int {
	if sides < 1 {
		panic(fmt.Sprintf("dice: Roll called with sides=%d", sides))
	}
	return src.Intn(sides) + 1
}
