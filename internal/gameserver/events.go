package gameserver

import "github.com/gridfall/gridfall/internal/game/board"

// Outbound event names. Turn and countdown events live in the turn package;
// everything else the game emits is named here.
const (
	EventFightStarted     = "fight-started"
	EventDiceRolled       = "dice-rolled"
	EventFightEnded       = "fight-ended"
	EventEscapeFailed     = "escape-failed"
	EventUpdatedVictories = "updated-victories"

	EventPlayerMoved  = "player-moved"
	EventTilesVisited = "tiles-visited"
	EventDoorToggled  = "door-toggled"
	EventItemPickedUp = "item-picked-up"
	EventItemThrown   = "item-thrown"

	EventRoundEnded      = "round-ended"
	EventAutoAttack      = "performed-automatic-attack"
	EventNewRoundStarted = "new-round-started"

	EventGameOver = "game-over"
)

// FightStartedPayload announces a new fight and its initiative order.
type FightStartedPayload struct {
	FightID  string `json:"fightId"`
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
	// First is the username of the combatant with initiative.
	First string `json:"first"`
}

// DiceRolledPayload carries one combatant's post-roll stats.
type DiceRolledPayload struct {
	Player      string `json:"player"`
	AttackRoll  int    `json:"attackRoll"`
	DefenseRoll int    `json:"defenseRoll"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
}

// FightEndedPayload closes a fight, by escape or by defeat.
type FightEndedPayload struct {
	Escaped bool   `json:"escaped"`
	Player  string `json:"player,omitempty"`
	Winner  string `json:"winner,omitempty"`
	Loser   string `json:"loser,omitempty"`
}

// EscapeFailedPayload reports an escape attempt with an exhausted budget.
type EscapeFailedPayload struct {
	Player string `json:"player"`
}

// UpdatedVictoriesPayload carries the post-victory counters.
type UpdatedVictoriesPayload struct {
	Winner    string `json:"winner"`
	Loser     string `json:"loser"`
	Victories int    `json:"victories"`
	Losses    int    `json:"losses"`
	FlagHome  bool   `json:"flagHome"`
}

// PlayerMovedPayload reports a completed movement step.
type PlayerMovedPayload struct {
	Player   string         `json:"player"`
	Position board.Position `json:"position"`
}

// TilesVisitedPayload carries the mover's updated exploration counter.
type TilesVisitedPayload struct {
	Player string `json:"player"`
	Count  int    `json:"count"`
}

// DoorToggledPayload reports a door flip.
type DoorToggledPayload struct {
	Player   string         `json:"player"`
	Position board.Position `json:"position"`
	Open     bool           `json:"open"`
}

// ItemEventPayload reports an item entering or leaving an inventory.
type ItemEventPayload struct {
	Player   string         `json:"player"`
	Item     string         `json:"item"`
	Position board.Position `json:"position"`
}

// AutoAttackPayload reports the strike fired on round expiry.
type AutoAttackPayload struct {
	Attacker string `json:"attacker"`
	Target   string `json:"target"`
	Hit      bool   `json:"hit"`
}

// NewRoundStartedPayload announces the next combatant's round.
type NewRoundStartedPayload struct {
	Player      string `json:"player"`
	EscapesLeft int    `json:"escapesLeft"`
}

// GameOverPayload announces the end of the match.
type GameOverPayload struct {
	Winner   string `json:"winner"`
	FlagHome bool   `json:"flagHome"`
}
