// Package main provides the game server binary: the websocket backend that
// runs rooms, turns, combat, and virtual players.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gridfall/gridfall/internal/config"
	"github.com/gridfall/gridfall/internal/game/board"
	"github.com/gridfall/gridfall/internal/game/bot"
	"github.com/gridfall/gridfall/internal/game/combat"
	"github.com/gridfall/gridfall/internal/game/dice"
	"github.com/gridfall/gridfall/internal/game/item"
	"github.com/gridfall/gridfall/internal/game/room"
	"github.com/gridfall/gridfall/internal/game/turn"
	"github.com/gridfall/gridfall/internal/gameserver"
	"github.com/gridfall/gridfall/internal/observability"
	"github.com/gridfall/gridfall/internal/server"
)

// roomEmitter defers hub binding: the engines need a Broadcaster before the
// hub exists, because the hub's dispatcher needs the engines.
type roomEmitter struct {
	hub *server.Hub
}

func (e *roomEmitter) EmitToRoom(roomCode, event string, payload any) {
	if e.hub != nil {
		e.hub.EmitToRoom(roomCode, event, payload)
	}
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	boardsDir := flag.String("boards", "content/boards", "path to board template YAML directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cryptoSrc := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(cryptoSrc, logger)

	boardStart := time.Now()
	templates, err := board.LoadTemplates(*boardsDir)
	if err != nil {
		logger.Fatal("loading board templates", zap.Error(err))
	}
	logger.Info("board templates loaded",
		zap.Int("count", len(templates)),
		zap.Duration("elapsed", time.Since(boardStart)),
	)

	rooms := room.NewRegistry()
	boards := board.NewStore()
	fights := combat.NewEngine(roller)
	ledger := combat.NewVictoryLedger(cfg.Game.VictoryDebounce)
	effects := item.NewEffects()

	emitter := &roomEmitter{}
	sched := turn.NewScheduler(turn.Config{
		TurnSeconds:          cfg.Game.TurnSeconds,
		NotificationSeconds:  cfg.Game.NotificationSeconds,
		RoundSeconds:         cfg.Game.RoundSeconds,
		RoundSecondsNoEscape: cfg.Game.RoundSecondsNoEscape,
		TickInterval:         cfg.Game.TickInterval,
		TurnGuardDelay:       cfg.Game.TurnGuardDelay,
		BotJitterMin:         time.Duration(cfg.Game.BotJitterMinMs) * time.Millisecond,
		BotJitterMax:         time.Duration(cfg.Game.BotJitterMaxMs) * time.Millisecond,
	}, logger, emitter, rooms, roller)

	svc := gameserver.NewService(cfg.Game, logger, emitter, rooms, boards, fights, ledger, sched, effects, roller)

	bots := bot.NewEngine(bot.Config{
		StepInterval:    cfg.Game.BotStepInterval,
		IceStopChance:   cfg.Game.IceStopChance,
		ItemThrowChance: cfg.Game.ItemThrowChance,
	}, logger, rooms, boards, svc, fights, roller)
	svc.SetBotEngine(bots)
	sched.SetBotActivator(svc.ActivateBot)
	sched.SetRoundExpiryHandler(svc.HandleRoundExpiry)

	dispatcher := server.NewDispatcher(logger, svc, svc, templates)
	hub := server.NewHub(logger, dispatcher)
	emitter.hub = hub

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	httpSrv := &http.Server{Addr: cfg.Server.Addr(), Handler: mux}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("websocket", &server.FuncService{
		StartFn: func() error {
			logger.Info("websocket server listening", zap.String("addr", cfg.Server.Addr()))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(ctx)
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
