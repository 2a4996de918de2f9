// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"time"

	"youdo/internal/config"
	"youdo/internal/kv"
	"youdo/internal/logging"
	"youdo/internal/session"
	"youdo/internal/taskstore"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// env is always provided; env.Tasks is bound to env.Session.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Env is what a command runs against.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	KV      kv.Store
	Session *session.Store
	Tasks   *taskstore.Store

	// In supplies prompt answers.
	In io.Reader

	// Now is the clock used for urgency. Defaults to time.Now.
	Now func() time.Time

	// Google opens the Google Tasks source for import. Defaults to
	// OpenGoogleTasks.
	Google GoogleFactory
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}
