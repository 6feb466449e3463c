package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates a config file and initializes the listening-history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			r.logger.Warnf("config file already exists at %s, skipping", configPath)
		} else {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	} else {
		r.writePlain("✓ Created %s\n", configPath)
	}

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.writePlain("✓ Database ready\n")
	r.writePlain("\nNext: edit %s with your server's base_url, then run 'shelfplay auth login'\n", configPath)
	return nil
}
