// Package gameserver wires the game engines together and implements the
// inbound event handlers. Every mutation of room state, human- or
// bot-triggered, flows through the handlers here so the side effects are
// identical for both.
package gameserver

import (
	"go.uber.org/zap"

	"github.com/gridfall/gridfall/internal/config"
	"github.com/gridfall/gridfall/internal/game/board"
	"github.com/gridfall/gridfall/internal/game/bot"
	"github.com/gridfall/gridfall/internal/game/combat"
	"github.com/gridfall/gridfall/internal/game/item"
	"github.com/gridfall/gridfall/internal/game/player"
	"github.com/gridfall/gridfall/internal/game/room"
	"github.com/gridfall/gridfall/internal/game/turn"
)

// respawnHealth is the health a defeated player comes back with.
const respawnHealth = 4

// Broadcaster sends an event to every client in a room.
type Broadcaster interface {
	EmitToRoom(roomCode, event string, payload any)
}

// Source is the randomness provider for turn-order shuffling and item
// placement.
type Source interface {
	Intn(n int) int
}

// Service implements the inbound game events. All methods are safe for
// concurrent use and resolve missing rooms, players, and tiles as silent
// no-ops: those conditions are expected under network races.
type Service struct {
	log     *zap.Logger
	cfg     config.GameConfig
	emit    Broadcaster
	rooms   *room.Registry
	boards  *board.Store
	fights  *combat.Engine
	ledger  *combat.VictoryLedger
	sched   *turn.Scheduler
	effects *item.Effects
	rng     Source

	// bots is installed after construction: the bot engine needs this
	// Service as its command surface.
	bots *bot.Engine
}

// NewService creates the event-handling service.
//
// Precondition: all arguments must be non-nil. Call SetBotEngine before the
// first game starts.
func NewService(
	cfg config.GameConfig,
	log *zap.Logger,
	emit Broadcaster,
	rooms *room.Registry,
	boards *board.Store,
	fights *combat.Engine,
	ledger *combat.VictoryLedger,
	sched *turn.Scheduler,
	effects *item.Effects,
	rng Source,
) *Service {
	return &Service{
		log:     log,
		cfg:     cfg,
		emit:    emit,
		rooms:   rooms,
		boards:  boards,
		fights:  fights,
		ledger:  ledger,
		sched:   sched,
		effects: effects,
		rng:     rng,
	}
}

// SetBotEngine installs the virtual-player engine.
func (s *Service) SetBotEngine(b *bot.Engine) { s.bots = b }

// ActivateBot is the scheduler's bot-activation hook.
func (s *Service) ActivateBot(code string, p *player.Player) {
	if s.bots == nil {
		return
	}
	s.bots.TakeTurn(code, p)
}

// effectHolder scopes effect tracking to a room so usernames reused across
// rooms do not share state.
func effectHolder(code, username string) string {
	return code + "\x00" + username
}

// Configure sets the room's mode flags ahead of game start, creating the
// room if needed.
func (s *Service) Configure(code string, debug, captureTheFlag bool) {
	r := s.rooms.GetOrCreate(code)
	r.Debug = debug
	r.CaptureTheFlag = captureTheFlag
}

// StartGame initializes a room for play: the board is installed wholesale
// with its unclaimed item slots randomized, every player spawns on its spawn
// tile with a full movement budget, the turn order is shuffled, and the
// first notification timer starts.
//
// Starting an already-started room is a no-op.
func (s *Service) StartGame(code string, b *board.Board, players []*player.Player) {
	if b == nil || len(players) == 0 {
		return
	}
	r := s.rooms.GetOrCreate(code)
	if r.Started {
		return
	}

	gb := b.Clone()
	pool := make([]string, 0, len(item.Placeable()))
	for _, id := range item.Placeable() {
		pool = append(pool, string(id))
	}
	gb.RandomizeItems(pool, s.rng)

	for _, p := range players {
		if !gb.PlaceAvatar(p.Username, p.Character.Spawn) {
			s.log.Warn("spawn tile unusable, player placed nowhere",
				zap.String("room", code), zap.String("player", p.Username))
			continue
		}
		p.Character.Position = p.Character.Spawn
		p.ResetTurn()
	}

	order := make([]*player.Player, len(players))
	copy(order, players)
	for i := len(order) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	s.boards.SetBoard(code, gb)
	r.SetPlayers(order)
	r.Started = true

	s.log.Info("game started",
		zap.String("room", code),
		zap.Int("players", len(order)),
		zap.Bool("debug", r.Debug),
		zap.Bool("captureTheFlag", r.CaptureTheFlag))
	s.sched.StartGame(code)
}

// EndTurn advances the room's active player. Used by both the manual
// end-turn event and the bot engine.
func (s *Service) EndTurn(code string) {
	s.sched.EndTurn(code)
}

// ResumeTurnTimer restarts a paused turn countdown.
func (s *Service) ResumeTurnTimer(code string) { s.sched.ResumeTurn(code) }

// StopGameTimer cancels the room's turn-phase countdowns.
func (s *Service) StopGameTimer(code string) { s.sched.StopTurnTimers(code) }

// StopCombatTimer cancels the room's combat round countdown.
func (s *Service) StopCombatTimer(code string) { s.sched.StopRound(code) }

// StartFightByName resolves both usernames against the roster and starts the
// fight. Either combatant missing is a silent no-op.
func (s *Service) StartFightByName(code, attacker, defender string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	ap, ok := r.Player(attacker)
	if !ok {
		return
	}
	dp, ok := r.Player(defender)
	if !ok {
		return
	}
	s.startFight(code, r, ap, dp)
}

// StartFight is the bot engine's fight command.
func (s *Service) StartFight(code string, p *player.Player, opponent string) {
	s.StartFightByName(code, p.Username, opponent)
}

func (s *Service) startFight(code string, r *room.Room, attacker, defender *player.Player) {
	if _, active := s.fights.Fight(code); active {
		return // fight-start race absorbed
	}
	s.sched.PauseTurn(code)

	f, err := s.fights.Begin(code, attacker, defender, r.Debug)
	if err != nil {
		s.log.Debug("fight rejected", zap.String("room", code), zap.Error(err))
		s.sched.ResumeTurn(code)
		return
	}

	s.emit.EmitToRoom(code, EventFightStarted, FightStartedPayload{
		FightID:  f.ID,
		Attacker: attacker.Username,
		Defender: defender.Username,
		First:    f.Current().Username(),
	})
	for _, c := range f.Combatants {
		s.emit.EmitToRoom(code, EventDiceRolled, DiceRolledPayload{
			Player:      c.Username(),
			AttackRoll:  c.AttackRoll,
			DefenseRoll: c.DefenseRoll,
			Attack:      c.Attack,
			Defense:     c.Defense,
		})
	}
	s.sched.StartRound(code, true)
}

// EndFight resolves an escape request. Escape always succeeds while the
// player's budget lasts; an exhausted budget emits escape-failed and keeps
// the fight running.
func (s *Service) EndFight(code, escaper string) {
	f, ok := s.fights.Fight(code)
	if !ok || !f.Involves(escaper) {
		return
	}
	if !f.Escape(escaper) {
		s.emit.EmitToRoom(code, EventEscapeFailed, EscapeFailedPayload{Player: escaper})
		return
	}
	s.sched.StopRound(code)
	s.fights.End(code)
	s.emit.EmitToRoom(code, EventFightEnded, FightEndedPayload{Escaped: true, Player: escaper})
	s.resumeOrAdvance(code)
}

// resumeOrAdvance is the single post-fight continuation decision: the active
// player's turn resumes when it still has movement budget, otherwise the
// turn advances. Virtual players resume by re-activation.
func (s *Service) resumeOrAdvance(code string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	active, _ := r.ActivePlayer()
	if active == nil {
		return
	}
	if active.RemainingSpeed <= 0 {
		s.sched.EndTurn(code)
		return
	}
	if active.IsVirtual {
		// Re-activate only while the intent is unfinished; a discharged
		// turn advances instead.
		if r.BotActionOwed(active.Username) {
			s.ActivateBot(code, active)
		} else {
			s.sched.EndTurn(code)
		}
		return
	}
	s.sched.ResumeTurn(code)
}

// VictoryUpdate records a victory signal. The first signal per (room,
// winner) inside the debounce window is authoritative; duplicates are
// dropped. Reaching the victory count, or bringing the flag home, ends the
// match.
func (s *Service) VictoryUpdate(code, winner, loser string, flagHome bool) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	wp, ok := r.Player(winner)
	if !ok {
		return
	}
	lp, ok := r.Player(loser)
	if !ok {
		return
	}
	if !s.ledger.Record(code, winner) {
		return
	}

	wp.Counters.Victories++
	lp.Counters.Losses++
	s.emit.EmitToRoom(code, EventUpdatedVictories, UpdatedVictoriesPayload{
		Winner:    winner,
		Loser:     loser,
		Victories: wp.Counters.Victories,
		Losses:    lp.Counters.Losses,
		FlagHome:  flagHome,
	})

	if flagHome || wp.Counters.Victories >= s.cfg.VictoriesToWin {
		s.endGame(code, r, winner, flagHome)
	}
}

func (s *Service) endGame(code string, r *room.Room, winner string, flagHome bool) {
	s.sched.StopAll(code)
	s.fights.End(code)
	r.Started = false
	s.log.Info("game over", zap.String("room", code), zap.String("winner", winner))
	s.emit.EmitToRoom(code, EventGameOver, GameOverPayload{Winner: winner, FlagHome: flagHome})
}

// MoveStep executes one adjacent movement step for p, charging the terrain
// cost against the turn's movement budget and picking up whatever item the
// destination tile holds. This is the bot engine's move command and the
// non-teleport human path.
func (s *Service) MoveStep(code string, p *player.Player, to board.Position) bot.MoveOutcome {
	r, ok := s.rooms.Get(code)
	if !ok {
		return bot.MoveOutcome{}
	}
	b, ok := s.boards.Board(code)
	if !ok {
		return bot.MoveOutcome{}
	}
	from, ok := b.FindAvatar(p.Username)
	if !ok || !from.Adjacent(to) {
		return bot.MoveOutcome{}
	}
	tile, ok := b.At(to)
	if !ok {
		return bot.MoveOutcome{}
	}
	cost := tile.StepCost()
	if !tile.Traversable() || cost > p.RemainingSpeed {
		return bot.MoveOutcome{}
	}
	if !b.MoveAvatar(from, to) {
		return bot.MoveOutcome{}
	}

	p.Character.Position = to
	p.RemainingSpeed -= cost
	p.Counters.TilesVisited++
	s.emit.EmitToRoom(code, EventPlayerMoved, PlayerMovedPayload{Player: p.Username, Position: to})
	s.emit.EmitToRoom(code, EventTilesVisited, TilesVisitedPayload{Player: p.Username, Count: p.Counters.TilesVisited})

	picked := s.pickUpAt(code, p, b, to)

	// Bringing the flag to the player's own spawn wins capture-the-flag.
	if r.CaptureTheFlag && p.HasFlag() && to == p.Character.Spawn {
		s.flagHomeVictory(code, r, p)
	}
	return bot.MoveOutcome{Moved: true, PickedItem: picked}
}

// PlayerMove is the inbound human move handler. Admins in debug rooms may
// teleport: any unoccupied traversable tile, no adjacency or cost check.
func (s *Service) PlayerMove(code, username string, to board.Position, teleport bool) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p, ok := r.Player(username)
	if !ok {
		return
	}
	if teleport && r.Debug && p.IsAdmin {
		b, ok := s.boards.Board(code)
		if !ok {
			return
		}
		from, ok := b.FindAvatar(username)
		if !ok || !b.MoveAvatar(from, to) {
			return
		}
		p.Character.Position = to
		s.emit.EmitToRoom(code, EventPlayerMoved, PlayerMovedPayload{Player: username, Position: to})
		return
	}
	s.MoveStep(code, p, to)
}

// pickUpAt moves the destination tile's item, if any, into p's inventory and
// applies its effects. A full inventory leaves the item on the tile.
func (s *Service) pickUpAt(code string, p *player.Player, b *board.Board, pos board.Position) bool {
	tile, ok := b.At(pos)
	if !ok || tile.Item == "" {
		return false
	}
	id := item.ID(tile.Item)
	if _, known := item.Lookup(id); !known {
		s.log.Warn("unknown item on board", zap.String("room", code), zap.String("item", tile.Item))
		return false
	}
	if !p.Inventory.Add(id) {
		return false
	}
	b.RemoveItem(pos)
	s.effects.Apply(id, effectHolder(code, p.Username), &p.Character.Stats)
	p.Counters.ObjectsCollected++
	s.emit.EmitToRoom(code, EventItemPickedUp, ItemEventPayload{
		Player:   p.Username,
		Item:     string(id),
		Position: pos,
	})
	return true
}

// PickUpItem is the inbound item-picked-up handler: the player claims the
// item on its current tile.
func (s *Service) PickUpItem(code, username string, pos board.Position) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p, ok := r.Player(username)
	if !ok {
		return
	}
	b, ok := s.boards.Board(code)
	if !ok {
		return
	}
	s.pickUpAt(code, p, b, pos)
}

// ThrowItem removes id from p's inventory, reverts its stat effects, and
// drops it on the first free neighboring tile (falling back to p's own
// tile). This is also the bot engine's throw command.
func (s *Service) ThrowItem(code string, p *player.Player, id item.ID) {
	if !p.Inventory.Remove(id) {
		return
	}
	s.effects.Revert(id, effectHolder(code, p.Username), &p.Character.Stats)

	b, ok := s.boards.Board(code)
	if !ok {
		return
	}
	pos, found := b.FindAvatar(p.Username)
	dropped := pos
	placed := false
	if found {
		for _, n := range pos.Neighbors4() {
			if b.PlaceItem(string(id), n) {
				dropped, placed = n, true
				break
			}
		}
		if !placed && b.PlaceItem(string(id), pos) {
			dropped, placed = pos, true
		}
	}
	if !placed {
		s.log.Debug("thrown item had nowhere to land",
			zap.String("room", code), zap.String("item", string(id)))
	}
	s.emit.EmitToRoom(code, EventItemThrown, ItemEventPayload{
		Player:   p.Username,
		Item:     string(id),
		Position: dropped,
	})
}

// ThrowItemByName is the inbound item-thrown handler.
func (s *Service) ThrowItemByName(code, username string, id item.ID) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p, ok := r.Player(username)
	if !ok {
		return
	}
	s.ThrowItem(code, p, id)
}

// ToggleDoor flips the door at the given tile and records the manipulation.
// This is also the bot engine's door command.
//
// Postcondition: Returns false when the tile is missing or not a door.
func (s *Service) ToggleDoor(code string, p *player.Player, at board.Position) bool {
	b, ok := s.boards.Board(code)
	if !ok {
		return false
	}
	open, ok := b.ToggleDoor(at)
	if !ok {
		return false
	}
	p.Counters.DoorsToggled++
	s.emit.EmitToRoom(code, EventDoorToggled, DoorToggledPayload{
		Player:   p.Username,
		Position: at,
		Open:     open,
	})
	return true
}

// ToggleDoorByName is the inbound toggle-door handler.
func (s *Service) ToggleDoorByName(code, username string, at board.Position) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p, ok := r.Player(username)
	if !ok {
		return
	}
	s.ToggleDoor(code, p, at)
}

// HandleRoundExpiry is the scheduler's round-expiry hook: it fires the
// automatic attack, applies the 1-point damage, and either ends the fight
// by defeat or hands the round to the other combatant.
func (s *Service) HandleRoundExpiry(code string) {
	f, ok := s.fights.Fight(code)
	if !ok {
		return
	}

	res := f.AutoAttack()
	s.emit.EmitToRoom(code, EventAutoAttack, AutoAttackPayload(res))

	if res.Hit {
		target, _ := f.Combatant(res.Target)
		target.Player.Character.Stats.Health--
		if target.Player.Character.Stats.Health <= 0 {
			s.resolveDefeat(code, res.Attacker, target.Player)
			return
		}
	}

	f.AdvanceTurn()
	next := f.Current()
	s.emit.EmitToRoom(code, EventRoundEnded, struct{}{})
	s.emit.EmitToRoom(code, EventNewRoundStarted, NewRoundStartedPayload{
		Player:      next.Username(),
		EscapesLeft: next.EscapesLeft,
	})
	s.sched.StartRound(code, next.EscapesLeft > 0)
}

// resolveDefeat ends the fight by knockout: the loser drops the flag where
// it fell, respawns at its spawn tile with restored health, and the victory
// is recorded.
func (s *Service) resolveDefeat(code, winner string, loser *player.Player) {
	s.sched.StopRound(code)
	s.fights.End(code)
	s.emit.EmitToRoom(code, EventFightEnded, FightEndedPayload{
		Winner: winner,
		Loser:  loser.Username,
	})

	if b, ok := s.boards.Board(code); ok {
		if pos, found := b.FindAvatar(loser.Username); found {
			if loser.HasFlag() {
				loser.Inventory.Remove(item.Flag)
				b.PlaceItem(string(item.Flag), pos)
			}
			if pos != loser.Character.Spawn && b.MoveAvatar(pos, loser.Character.Spawn) {
				loser.Character.Position = loser.Character.Spawn
				s.emit.EmitToRoom(code, EventPlayerMoved, PlayerMovedPayload{
					Player:   loser.Username,
					Position: loser.Character.Spawn,
				})
			}
		}
	}
	loser.Character.Stats.Health = respawnHealth

	s.VictoryUpdate(code, winner, loser.Username, false)
	if r, ok := s.rooms.Get(code); ok && r.Started {
		s.resumeOrAdvance(code)
	}
}

// flagHomeVictory resolves the capture-the-flag win: carrier at its own
// spawn with the flag.
func (s *Service) flagHomeVictory(code string, r *room.Room, carrier *player.Player) {
	// The loser slot is filled best-effort with the nearest opponent; the
	// flag-home condition cares only about the winner.
	loser := ""
	for _, p := range r.Players() {
		if p.Username != carrier.Username {
			loser = p.Username
			break
		}
	}
	if loser == "" {
		return
	}
	s.VictoryUpdate(code, carrier.Username, loser, true)
}

// RemovePlayer drops username from the room: its avatar and effects are
// cleared, any fight it was in ends, and the turn pointer is re-indexed.
// The room is torn down when the last human leaves.
func (s *Service) RemovePlayer(code, username string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p, ok := r.Player(username)
	if !ok {
		return
	}

	if f, active := s.fights.Fight(code); active && f.Involves(username) {
		s.sched.StopRound(code)
		s.fights.End(code)
		s.emit.EmitToRoom(code, EventFightEnded, FightEndedPayload{Escaped: true, Player: username})
	}

	active, _ := r.ActivePlayer()
	wasActive := active != nil && active.Username == username

	if b, ok := s.boards.Board(code); ok {
		if pos, found := b.FindAvatar(username); found {
			if p.HasFlag() {
				b.PlaceItem(string(item.Flag), pos)
			}
			b.RemoveAvatar(username)
		}
	}
	s.effects.Clear(effectHolder(code, username))
	r.Remove(username)

	s.log.Info("player left", zap.String("room", code), zap.String("player", username))

	if r.HumanCount() == 0 {
		s.TearDownRoom(code)
		return
	}
	if wasActive && r.Started {
		// The removal already re-pointed the active index; announce the new
		// owner and restart its turn from the notification phase.
		s.sched.StopTurnTimers(code)
		s.sched.StartGame(code)
	}
}

// TearDownRoom synchronously cancels every timer and purges all per-room
// state. A fired callback for a torn-down room is a no-op.
func (s *Service) TearDownRoom(code string) {
	s.sched.StopAll(code)
	s.fights.End(code)
	s.ledger.Purge(code)
	if r, ok := s.rooms.Get(code); ok {
		for _, p := range r.Players() {
			s.effects.Clear(effectHolder(code, p.Username))
		}
	}
	s.boards.Remove(code)
	s.rooms.Remove(code)
	s.log.Info("room torn down", zap.String("room", code))
}
