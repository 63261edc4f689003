package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/poseup/internal/repositories"
	"github.com/desertthunder/poseup/internal/session"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}
	config.ResolveBaseURL()
	shared.SetLogLevel(logger, shared.ParseLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Fatalf("database error: %v", err)
	}

	runner, err := NewRunner(RunnerOpts{
		Config: config,
		Store:  session.NewStore(repositories.NewSettingsRepository(db)),
		Logger: logger,
	})
	if err != nil {
		db.Close()
		logger.Fatalf("startup error: %v", err)
	}

	app := &cli.Command{
		Name:     "poseup",
		Usage:    "Upload videos for pose analysis and fetch the results",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err = app.Run(ctx, os.Args)
	db.Close()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}
