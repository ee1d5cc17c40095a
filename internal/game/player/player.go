// Package player defines the per-game player record shared by the
// scheduler, combat engine, and virtual-player engine.
package player

import (
	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/item"
)

// Profile is a virtual player's behavioral archetype.
type Profile string

const (
	ProfileAggressive Profile = "aggressive"
	ProfileDefensive  Profile = "defensive"
)

// Counters holds the per-game statistics tracked for each player.
type Counters struct {
	Victories        int `json:"victories"`
	Losses           int `json:"losses"`
	Combats          int `json:"combats"`
	Escapes          int `json:"escapes"`
	ObjectsCollected int `json:"objectsCollected"`
	PointsTaken      int `json:"pointsTaken"`
	PointsLost       int `json:"pointsLost"`
	TilesVisited     int `json:"tilesVisited"`
	DoorsToggled     int `json:"doorsToggled"`
}

// Player is one participant in a room. Usernames are unique within a room.
// Not synchronized; the owning room serializes access.
type Player struct {
	Username  string  `json:"username"`
	IsVirtual bool    `json:"isVirtual"`
	// Profile is set only for virtual players.
	Profile Profile `json:"profile,omitempty"`
	IsAdmin bool    `json:"isAdmin"`

	Character *character.Character `json:"character"`
	Inventory *item.Inventory      `json:"inventory"`

	// RemainingSpeed is the movement budget left this turn.
	RemainingSpeed int `json:"remainingSpeed"`

	Counters Counters `json:"counters"`
}

// New creates a human player with the given character.
//
// Precondition: username must be non-empty; c must be non-nil.
func New(username string, c *character.Character) *Player {
	return &Player{
		Username:  username,
		Character: c,
		Inventory: &item.Inventory{},
	}
}

// NewVirtual creates a bot player with the given profile.
//
// Precondition: username must be non-empty; profile must be aggressive or
// defensive; c must be non-nil.
func NewVirtual(username string, profile Profile, c *character.Character) *Player {
	p := New(username, c)
	p.IsVirtual = true
	p.Profile = profile
	return p
}

// ResetTurn restores the movement budget from the character's current speed
// stat. Called at the start of each of the player's turns.
func (p *Player) ResetTurn() {
	p.RemainingSpeed = p.Character.Stats.Speed
}

// HasFlag reports whether the player carries the flag.
func (p *Player) HasFlag() bool {
	return p.Inventory.Holds(item.Flag)
}
