// Package character defines the stat block and board presence of an avatar.
package character

import (
	"github.com/gridfall/gridfall/internal/game/board"
	"github.com/gridfall/gridfall/internal/game/dice"
)

// Stats is the mutable stat block. Items, dice rolls, and ice-tile penalties
// adjust these values temporarily; every adjustment must be reverted so the
// block is net-zero over a full apply/revert cycle.
type Stats struct {
	Health  int `json:"health"`
	Speed   int `json:"speed"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
}

// Character is the in-game body of a player: stats, dice assignment, sprite,
// and board position.
type Character struct {
	Stats Stats     `json:"stats"`
	Dice  dice.Kind `json:"dice"`
	// Body is the avatar sprite identifier.
	Body string `json:"body"`
	// Position is the character's current tile.
	Position board.Position `json:"position"`
	// Spawn is the tile the character started on; the flag must be carried
	// here to win in capture-the-flag mode.
	Spawn board.Position `json:"spawn"`
}
