package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/config"
	"github.com/roach88/recordstore/internal/core"
)

// session is an open store plus the settings it was opened with.
type session struct {
	db  *core.Store
	cfg config.Config
	out *OutputFormatter
}

// openSession resolves configuration, configures logging and opens the
// store. Callers must call close.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}

	slog.SetDefault(newLogger(cfg.Logging, opts.Verbose, cmd.ErrOrStderr()))

	deps := opts.Deps
	if deps.Hasher == nil {
		deps.Hasher = collab.BcryptHasher{Cost: cfg.Security.BcryptCost}
	}

	slog.Debug("opening database", "path", cfg.Database.Path, "busy_timeout", cfg.Database.BusyTimeout)
	db, err := core.Open(cfg.Database.Path, deps, cfg.Database.StoreOptions()...)
	if err != nil {
		return nil, WrapExitError(ExitStorageError, "failed to open database", err)
	}
	slog.Debug("database ready")

	return &session{
		db:  db,
		cfg: cfg,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (s *session) close() {
	if err := s.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// newLogger builds the command's logger on w. --verbose forces debug.
func newLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// withSession opens a session, runs fn and closes the session.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s)
}
