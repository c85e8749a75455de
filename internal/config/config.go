package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// REALMFORGE_SERVER_ADDRESS.
const EnvPrefix = "REALMFORGE"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Content ContentConfig `mapstructure:"content"`
	Game    GameConfig    `mapstructure:"game"`
}

// ServerConfig controls the HTTP and WebSocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxMatches      int           `mapstructure:"max_matches"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ContentConfig points at the card and deck data files.
type ContentConfig struct {
	Cards string `mapstructure:"cards"`
	Decks string `mapstructure:"decks"`
}

// GameConfig holds the rule knobs handed to every new match.
type GameConfig struct {
	StartingAuthority int    `mapstructure:"starting_authority"`
	BaseHandSize      int    `mapstructure:"base_hand_size"`
	TradeRowSize      int    `mapstructure:"trade_row_size"`
	StartingD10       int    `mapstructure:"starting_d10"`
	Seed              uint64 `mapstructure:"seed"`
	// ReplayDir keeps recordings of finished matches. Empty disables them.
	ReplayDir string `mapstructure:"replay_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_limit", 65536)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_matches", 256)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("content.cards", "content/cards.json")
	v.SetDefault("content.decks", "content/decks.yaml")

	v.SetDefault("game.starting_authority", 50)
	v.SetDefault("game.base_hand_size", 5)
	v.SetDefault("game.trade_row_size", 5)
	v.SetDefault("game.starting_d10", 5)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.replay_dir", "")
}

// Load reads path (if it exists) over the defaults, then applies
// REALMFORGE_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.read_limit must be positive, got %d", c.Server.ReadLimit))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Content.Cards == "" || c.Content.Decks == "" {
		errs = append(errs, errors.New("content.cards and content.decks are required"))
	}
	if c.Game.StartingD10 < 0 || c.Game.StartingD10 > 9 {
		errs = append(errs, fmt.Errorf("game.starting_d10 must be within 0..9, got %d", c.Game.StartingD10))
	}
	return errors.Join(errs...)
}
