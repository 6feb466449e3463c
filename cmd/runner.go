package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/player"
	"github.com/desertthunder/shelfplay/internal/repositories"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/desertthunder/shelfplay/internal/stream"
	"github.com/desertthunder/shelfplay/internal/telemetry"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	library  services.Library
	client   *services.Client
	tokens   *shared.TokenStore
	recorder telemetry.Recorder
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Library  services.Library
	Client   *services.Client
	Tokens   *shared.TokenStore
	Recorder telemetry.Recorder
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Tokens == nil {
		opts.Tokens = shared.NewTokenStore(opts.Config.ResolveTokenPath())
	}
	if opts.Recorder == nil {
		if opts.Config.Telemetry.Enabled {
			opts.Recorder = telemetry.NewSession()
		} else {
			opts.Recorder = telemetry.Noop{}
		}
	}
	if opts.Library == nil && opts.Client != nil {
		opts.Library = opts.Client
	}

	return &Runner{
		config:   opts.Config,
		library:  opts.Library,
		client:   opts.Client,
		tokens:   opts.Tokens,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger swaps the runner's logger. Used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, booksCommand, playCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireLibrary fails fast when no backend client is configured.
func (r *Runner) requireLibrary() error {
	if r.library == nil {
		return fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// requireAuth fails fast when no token is saved.
func (r *Runner) requireAuth() error {
	if err := r.requireLibrary(); err != nil {
		return err
	}
	if r.client != nil && !r.client.Authenticated() {
		return fmt.Errorf("%w: run 'shelfplay auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// openDatabase opens the listening-history database and applies migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if path == "" {
		path = "shelfplay.db"
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// history opens the listening-history repository. The caller closes the
// returned database handle.
func (r *Runner) history() (*repositories.ListeningSessionRepository, *sql.DB, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewListeningSessionRepository(db), db, nil
}

// buildPlayer assembles the playback stack for one resource: the mpv
// primitive, the source resolver, and the progress reconciler.
func (r *Runner) buildPlayer(ref services.ResourceRef, title string) (*player.Player, *player.Reconciler, error) {
	if err := r.requireAuth(); err != nil {
		return nil, nil, err
	}

	media, err := player.NewMPV(r.config.Player.MpvPath, r.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrMediaUnavailable, err)
	}

	resolver := stream.NewResolver(r.client, r.config.API.AuthenticatedStreaming, r.recorder, r.logger)
	reconciler := player.NewReconciler(r.library, ref, r.logger)

	p := player.New(player.Options{
		Media:        media,
		Resolver:     resolver,
		Reconciler:   reconciler,
		Recorder:     r.recorder,
		Logger:       r.logger,
		Ref:          ref,
		Title:        title,
		SkipSeconds:  float64(r.config.Player.SkipSeconds),
		PushInterval: pushInterval(r.config),
		Volume:       r.config.Player.Volume,
		Rate:         r.config.Player.Rate,
	})

	return p, reconciler, nil
}

func pushInterval(cfg *shared.Config) time.Duration {
	if cfg.Player.PushIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.Player.PushIntervalSeconds) * time.Second
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// dumpTelemetry appends the session report to the configured telemetry log.
func (r *Runner) dumpTelemetry() {
	path := r.config.Telemetry.LogPath
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		r.logger.Warn("failed to open telemetry log", "err", err)
		return
	}
	defer f.Close()
	if err := r.recorder.Dump(f); err != nil {
		r.logger.Warn("failed to write telemetry log", "err", err)
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
