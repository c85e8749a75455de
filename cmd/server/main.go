package main

import (
	"context"
	"flag"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/realmforge/realmforge-server-go/internal/config"
	"github.com/realmforge/realmforge-server-go/internal/game"
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/match"
	"github.com/realmforge/realmforge-server-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

// loadEnv reads path into the environment. A missing file is not an error;
// real environment variables still apply.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	flag.Parse()

	envErr := loadEnv(".env")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Warn("ignoring .env file", zap.Error(envErr))
	}

	logger.Info("starting realmforge server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	catalog, err := cards.LoadCatalogFile(cfg.Content.Cards)
	if err != nil {
		logger.Fatal("failed to load card definitions", zap.String("path", cfg.Content.Cards), zap.Error(err))
	}
	decks, err := cards.LoadDeckList(cfg.Content.Decks)
	if err != nil {
		logger.Fatal("failed to load deck list", zap.String("path", cfg.Content.Decks), zap.Error(err))
	}
	if err := decks.Validate(catalog); err != nil {
		logger.Fatal("deck list does not match card definitions", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("card_types", catalog.Len()),
		zap.Int("starting_deck", len(cards.Expand(catalog, decks.StartingDeck))),
		zap.Int("trade_deck", len(cards.Expand(catalog, decks.TradeDeck))),
	)

	matches := match.NewManager(catalog, decks, match.Options{
		Rules: game.Rules{
			StartingAuthority: cfg.Game.StartingAuthority,
			BaseHandSize:      cfg.Game.BaseHandSize,
			TradeRowSize:      cfg.Game.TradeRowSize,
			StartingD10:       cfg.Game.StartingD10,
		},
		Seed:       cfg.Game.Seed,
		MaxMatches: cfg.Server.MaxMatches,
		ReplayDir:  cfg.Game.ReplayDir,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg.Server, matches, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return
	}

	logger.Info("realmforge server stopped", zap.Int("live_matches", matches.ActiveCount()))
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
