package server

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/gridfall/gridfall/internal/game/board"
	"github.com/gridfall/gridfall/internal/game/character"
	"github.com/gridfall/gridfall/internal/game/dice"
	"github.com/gridfall/gridfall/internal/game/item"
	"github.com/gridfall/gridfall/internal/game/player"
)

// Inbound event names.
const (
	eventJoinRoom        = "join-room"
	eventStartGame       = "start-game"
	eventEndTurn         = "end-turn"
	eventStartFight      = "start-fight"
	eventEndFight        = "end-fight"
	eventVictoryUpdate   = "victory-update"
	eventPlayerMove      = "player-move"
	eventToggleDoor      = "toggle-door"
	eventItemPickedUp    = "item-picked-up"
	eventItemThrown      = "item-thrown"
	eventResumeTurnTimer = "resume-turn-timer"
	eventStopGameTimer   = "stop-game-timer"
	eventStopCombatTimer = "stop-combat-timer"
)

// GameHandler is the game-service surface the dispatcher drives. Implemented
// by *gameserver.Service.
type GameHandler interface {
	StartGame(code string, b *board.Board, players []*player.Player)
	EndTurn(code string)
	StartFightByName(code, attacker, defender string)
	EndFight(code, escaper string)
	VictoryUpdate(code, winner, loser string, flagHome bool)
	PlayerMove(code, username string, to board.Position, teleport bool)
	ToggleDoorByName(code, username string, at board.Position)
	PickUpItem(code, username string, pos board.Position)
	ThrowItemByName(code, username string, id item.ID)
	ResumeTurnTimer(code string)
	StopGameTimer(code string)
	StopCombatTimer(code string)
	RemovePlayer(code, username string)
}

// RoomControl is the room-attribute surface needed at game setup.
// Implemented by *room.Registry via gameserver wiring; kept narrow so the
// dispatcher stays transport-only.
type RoomControl interface {
	Configure(code string, debug, captureTheFlag bool)
}

// Dispatcher decodes inbound envelopes and routes them to the game service.
type Dispatcher struct {
	log       *zap.Logger
	game      GameHandler
	roomCtl   RoomControl
	templates map[string]*board.Template
}

// NewDispatcher creates a Dispatcher.
//
// Precondition: all arguments must be non-nil; templates must be validated.
func NewDispatcher(log *zap.Logger, game GameHandler, roomCtl RoomControl, templates map[string]*board.Template) *Dispatcher {
	return &Dispatcher{log: log, game: game, roomCtl: roomCtl, templates: templates}
}

// PlayerLeft is the hub's disconnect notification.
func (d *Dispatcher) PlayerLeft(room, username string) {
	d.game.RemovePlayer(room, username)
}

type joinRoomPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// CharacterSpec is the wire shape of a character at game start.
type CharacterSpec struct {
	Health  int             `json:"health"`
	Speed   int             `json:"speed"`
	Attack  int             `json:"attack"`
	Defense int             `json:"defense"`
	Dice    string          `json:"dice"`
	Body    string          `json:"body"`
	Spawn   *board.Position `json:"spawn,omitempty"`
}

// PlayerSpec is the wire shape of one participant at game start.
type PlayerSpec struct {
	Username  string        `json:"username"`
	IsVirtual bool          `json:"isVirtual"`
	Profile   string        `json:"profile,omitempty"`
	IsAdmin   bool          `json:"isAdmin"`
	Character CharacterSpec `json:"character"`
}

type startGamePayload struct {
	Room           string       `json:"room"`
	Board          string       `json:"board"`
	Players        []PlayerSpec `json:"players"`
	Debug          bool         `json:"debug"`
	CaptureTheFlag bool         `json:"captureTheFlag"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type fightPayload struct {
	Room     string `json:"room"`
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
	Player   string `json:"player"`
}

type victoryPayload struct {
	Room     string `json:"room"`
	Winner   string `json:"winner"`
	Loser    string `json:"loser"`
	FlagHome bool   `json:"flagHome"`
}

type movePayload struct {
	Room     string         `json:"room"`
	Player   string         `json:"player"`
	Position board.Position `json:"position"`
	Teleport bool           `json:"teleport"`
}

type tilePayload struct {
	Room     string         `json:"room"`
	Player   string         `json:"player"`
	Position board.Position `json:"position"`
}

type itemPayload struct {
	Room   string `json:"room"`
	Player string `json:"player"`
	Item   string `json:"item"`
}

// Handle routes one inbound envelope. Unknown events and malformed payloads
// are logged and dropped; the connection stays up.
func (d *Dispatcher) Handle(c *Client, env Envelope) {
	switch env.Event {
	case eventJoinRoom:
		var p joinRoomPayload
		if !d.decode(env, &p) {
			return
		}
		c.hub.joinRoom(c, p.Room, p.Username)

	case eventStartGame:
		var p startGamePayload
		if !d.decode(env, &p) {
			return
		}
		d.startGame(p)

	case eventEndTurn:
		var p roomPayload
		if d.decode(env, &p) {
			d.game.EndTurn(p.Room)
		}

	case eventStartFight:
		var p fightPayload
		if d.decode(env, &p) {
			d.game.StartFightByName(p.Room, p.Attacker, p.Defender)
		}

	case eventEndFight:
		var p fightPayload
		if d.decode(env, &p) {
			d.game.EndFight(p.Room, p.Player)
		}

	case eventVictoryUpdate:
		var p victoryPayload
		if d.decode(env, &p) {
			d.game.VictoryUpdate(p.Room, p.Winner, p.Loser, p.FlagHome)
		}

	case eventPlayerMove:
		var p movePayload
		if d.decode(env, &p) {
			d.game.PlayerMove(p.Room, p.Player, p.Position, p.Teleport)
		}

	case eventToggleDoor:
		var p tilePayload
		if d.decode(env, &p) {
			d.game.ToggleDoorByName(p.Room, p.Player, p.Position)
		}

	case eventItemPickedUp:
		var p tilePayload
		if d.decode(env, &p) {
			d.game.PickUpItem(p.Room, p.Player, p.Position)
		}

	case eventItemThrown:
		var p itemPayload
		if d.decode(env, &p) {
			d.game.ThrowItemByName(p.Room, p.Player, item.ID(p.Item))
		}

	case eventResumeTurnTimer:
		var p roomPayload
		if d.decode(env, &p) {
			d.game.ResumeTurnTimer(p.Room)
		}

	case eventStopGameTimer:
		var p roomPayload
		if d.decode(env, &p) {
			d.game.StopGameTimer(p.Room)
		}

	case eventStopCombatTimer:
		var p roomPayload
		if d.decode(env, &p) {
			d.game.StopCombatTimer(p.Room)
		}

	default:
		d.log.Debug("unknown event dropped", zap.String("event", env.Event))
	}
}

func (d *Dispatcher) decode(env Envelope, into any) bool {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		d.log.Warn("malformed payload",
			zap.String("event", env.Event), zap.Error(err))
		return false
	}
	return true
}

// startGame materializes the named template and the player roster, then
// hands off to the game service. Spawns omitted from the payload are
// assigned from the template's spawn list in order.
func (d *Dispatcher) startGame(p startGamePayload) {
	tpl, ok := d.templates[p.Board]
	if !ok {
		d.log.Warn("unknown board template",
			zap.String("room", p.Room), zap.String("board", p.Board))
		return
	}
	b, err := tpl.Build()
	if err != nil {
		d.log.Error("building board", zap.String("board", p.Board), zap.Error(err))
		return
	}

	players := make([]*player.Player, 0, len(p.Players))
	for i, spec := range p.Players {
		pl, err := buildPlayer(spec, tpl, i)
		if err != nil {
			d.log.Warn("invalid player spec",
				zap.String("room", p.Room), zap.String("player", spec.Username), zap.Error(err))
			return
		}
		players = append(players, pl)
	}

	d.roomCtl.Configure(p.Room, p.Debug, p.CaptureTheFlag)
	d.game.StartGame(p.Room, b, players)
}

func buildPlayer(spec PlayerSpec, tpl *board.Template, idx int) (*player.Player, error) {
	kind := dice.Kind(spec.Character.Dice)
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown dice kind %q", spec.Character.Dice)
	}
	spawn := tpl.Spawns[idx%len(tpl.Spawns)]
	if spec.Character.Spawn != nil {
		spawn = *spec.Character.Spawn
	}
	c := &character.Character{
		Stats: character.Stats{
			Health:  spec.Character.Health,
			Speed:   spec.Character.Speed,
			Attack:  spec.Character.Attack,
			Defense: spec.Character.Defense,
		},
		Dice:     kind,
		Body:     spec.Character.Body,
		Position: spawn,
		Spawn:    spawn,
	}
	var pl *player.Player
	if spec.IsVirtual {
		pl = player.NewVirtual(spec.Username, player.Profile(spec.Profile), c)
	} else {
		pl = player.New(spec.Username, c)
	}
	pl.IsAdmin = spec.IsAdmin
	return pl, nil
}
