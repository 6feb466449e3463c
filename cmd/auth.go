package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with email and password and saves the returned token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLibrary(); err != nil {
		return err
	}

	email := cmd.String("email")
	password := cmd.String("password")

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		r.writePlain("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		r.writePlain("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	result, err := r.library.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := r.tokens.Save(result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	r.logger.Info("authentication successful", "email", result.User.Email)
	return r.writePlain("✓ Signed in as %s\nToken saved to %s\n", result.User.Email, r.tokens.Path())
}

// AuthLogout removes the saved token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus shows the authenticated user by calling the profile endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLibrary(); err != nil {
		return err
	}

	user, err := r.library.Me(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			// stale token, drop it so the next login starts clean
			if clearErr := r.tokens.Clear(); clearErr != nil {
				r.logger.Warn("failed to remove expired token", "err", clearErr)
			}
		}
		if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not authenticated\nRun 'shelfplay auth login'\n")
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("Name:  %s\n", user.Name)
	r.writePlain("Email: %s\n", user.Email)
	return nil
}
