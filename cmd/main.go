package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	tokens := shared.NewTokenStore(config.ResolveTokenPath())
	token, err := tokens.Load()
	if err != nil && !errors.Is(err, shared.ErrNoToken) {
		logger.Warnf("failed to load saved token: %v", err)
	}

	client := services.NewClient(config.API.BaseURL, token, nil, logger)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: client,
		Tokens: tokens,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "shelfplay",
		Usage:    "Listen to your audiobook library from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
