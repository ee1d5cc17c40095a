// Package config provides Viper-based configuration loading for the Gridfall server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the websocket listener settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP/websocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP/websocket listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the gameplay timing and tuning parameters.
//
// The probability fields are percentages in [0, 100]; they are configuration
// rather than constants because no tuning rationale exists for any particular
// value.
type GameConfig struct {
	// TurnSeconds is the open-exploration turn countdown duration.
	TurnSeconds int `mapstructure:"turn_seconds"`
	// NotificationSeconds is the delay between a turn becoming active and
	// its movement timer starting.
	NotificationSeconds int `mapstructure:"notification_seconds"`
	// RoundSeconds is the combat round countdown while the active combatant
	// still has escape attempts.
	RoundSeconds int `mapstructure:"round_seconds"`
	// RoundSecondsNoEscape is the combat round countdown once escape
	// attempts are exhausted.
	RoundSecondsNoEscape int `mapstructure:"round_seconds_no_escape"`
	// TickInterval is the wall-clock duration of one countdown second.
	// Always one second in production; shortened in tests.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// VictoryDebounce is the window during which duplicate victory signals
	// for the same (room, winner) pair are dropped.
	VictoryDebounce time.Duration `mapstructure:"victory_debounce"`
	// VictoriesToWin is the victory count that ends a match.
	VictoriesToWin int `mapstructure:"victories_to_win"`
	// TurnGuardDelay is how long the turn-in-progress guard stays set after
	// a turn transition.
	TurnGuardDelay time.Duration `mapstructure:"turn_guard_delay"`
	// BotStepInterval is the delay between consecutive bot movement steps.
	BotStepInterval time.Duration `mapstructure:"bot_step_interval"`
	// BotJitterMinMs and BotJitterMaxMs bound the randomized delay before a
	// bot decision runs inside the notification phase.
	BotJitterMinMs int `mapstructure:"bot_jitter_min_ms"`
	BotJitterMaxMs int `mapstructure:"bot_jitter_max_ms"`
	// IceStopChance is the percent chance a bot stops when standing on ice.
	IceStopChance int `mapstructure:"ice_stop_chance"`
	// ItemThrowChance is the percent chance a bot with a full inventory
	// throws its first item before moving.
	ItemThrowChance int `mapstructure:"item_throw_chance"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Host == "" {
		return errors.New("server.host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", s.Port)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	if l.Format != "json" && l.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.TurnSeconds < 1 {
		errs = append(errs, fmt.Sprintf("game.turn_seconds must be >= 1, got %d", g.TurnSeconds))
	}
	if g.NotificationSeconds < 1 {
		errs = append(errs, fmt.Sprintf("game.notification_seconds must be >= 1, got %d", g.NotificationSeconds))
	}
	if g.RoundSeconds < 1 {
		errs = append(errs, fmt.Sprintf("game.round_seconds must be >= 1, got %d", g.RoundSeconds))
	}
	if g.RoundSecondsNoEscape < 1 || g.RoundSecondsNoEscape > g.RoundSeconds {
		errs = append(errs, fmt.Sprintf("game.round_seconds_no_escape must be in [1, round_seconds], got %d", g.RoundSecondsNoEscape))
	}
	if g.TickInterval <= 0 {
		errs = append(errs, "game.tick_interval must be > 0")
	}
	if g.VictoryDebounce <= 0 {
		errs = append(errs, "game.victory_debounce must be > 0")
	}
	if g.VictoriesToWin < 1 {
		errs = append(errs, fmt.Sprintf("game.victories_to_win must be >= 1, got %d", g.VictoriesToWin))
	}
	if g.TurnGuardDelay <= 0 {
		errs = append(errs, "game.turn_guard_delay must be > 0")
	}
	if g.BotStepInterval <= 0 {
		errs = append(errs, "game.bot_step_interval must be > 0")
	}
	if g.BotJitterMinMs < 0 || g.BotJitterMaxMs < g.BotJitterMinMs {
		errs = append(errs, fmt.Sprintf("game.bot_jitter bounds invalid: [%d, %d]", g.BotJitterMinMs, g.BotJitterMaxMs))
	}
	if g.IceStopChance < 0 || g.IceStopChance > 100 {
		errs = append(errs, fmt.Sprintf("game.ice_stop_chance must be 0-100, got %d", g.IceStopChance))
	}
	if g.ItemThrowChance < 0 || g.ItemThrowChance > 100 {
		errs = append(errs, fmt.Sprintf("game.item_throw_chance must be 0-100, got %d", g.ItemThrowChance))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applying defaults and
// GRIDFALL_-prefixed environment variable overrides.
//
// Precondition: path must point to a readable config file.
// Postcondition: Returns a validated Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GRIDFALL_ prefix
	v.SetEnvPrefix("GRIDFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no file is supplied.
//
// Postcondition: Default().Validate() == nil.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic("config: built-in defaults are invalid: " + err.Error())
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.turn_seconds", 30)
	v.SetDefault("game.notification_seconds", 3)
	v.SetDefault("game.round_seconds", 5)
	v.SetDefault("game.round_seconds_no_escape", 3)
	v.SetDefault("game.tick_interval", "1s")
	v.SetDefault("game.victory_debounce", "1500ms")
	v.SetDefault("game.victories_to_win", 3)
	v.SetDefault("game.turn_guard_delay", "100ms")
	v.SetDefault("game.bot_step_interval", "150ms")
	v.SetDefault("game.bot_jitter_min_ms", 500)
	v.SetDefault("game.bot_jitter_max_ms", 2000)
	v.SetDefault("game.ice_stop_chance", 10)
	v.SetDefault("game.item_throw_chance", 25)
}
