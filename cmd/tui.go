package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/desertthunder/shelfplay/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLibrary(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/shelfplay-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	repo, db, err := r.history()
	if err != nil {
		r.logger.Warn("history cache unavailable", "err", err)
		repo = nil
	} else {
		defer db.Close()
	}

	deps := ui.Deps{
		Library:       r.library,
		Authenticated: r.client != nil && r.client.Authenticated(),
		Login: func(ctx context.Context, email, password string) (services.Library, error) {
			result, err := r.library.Login(ctx, email, password)
			if err != nil {
				return nil, err
			}
			if err := r.tokens.Save(result.Token); err != nil {
				r.logger.Warn("failed to save token", "err", err)
			}

			client := services.NewClient(r.config.API.BaseURL, result.Token, nil, r.logger)
			r.client = client
			r.library = client
			return client, nil
		},
		Logout: func() error {
			return r.tokens.Clear()
		},
		NewPlayer: r.buildPlayer,
		History:   repo,
		Logger:    r.logger,
	}

	model := ui.NewModel(ctx, deps)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
