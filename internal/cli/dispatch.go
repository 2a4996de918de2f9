// Package cli parses the command line and runs commands against the
// session and task stores.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"youdo/internal/commands"
	"youdo/internal/config"
	"youdo/internal/exitcode"
	"youdo/internal/kv"
	"youdo/internal/logging"
	"youdo/internal/service"
	"youdo/internal/session"
	"youdo/internal/taskstore"
)

// ServiceFactory creates a Service from config.
// creds yields the current session token on every call.
type ServiceFactory func(ctx context.Context, cfg *config.Config, creds service.Credentials, logger *slog.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	in       io.Reader
	now      func() time.Time
	google   commands.GoogleFactory
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithInput sets the reader prompts are answered from.
func WithInput(r io.Reader) Option {
	return func(d *Dispatcher) { d.in = r }
}

// WithClock sets the clock used for urgency.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithGoogle sets how the Google Tasks import source is opened.
func WithGoogle(f commands.GoogleFactory) Option {
	return func(d *Dispatcher) { d.google = f }
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(err, errOut)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger, closer, err := logging.New(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open log file: %v\n", err)
		return exitcode.UserError
	}
	defer closer.Close()

	store, err := kv.Open(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open state: %v\n", err)
		return exitcode.UserError
	}
	defer store.Close()

	sess := session.New(nil, store, logger)
	if _, err := sess.Restore(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: backend error: no service configured")
		return exitcode.BackendError
	}
	svc, err := d.factory(ctx, cfg, sess, logger)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	sess.SetAuthenticator(svc)

	if cmd.NeedsAuth() && !sess.Active() {
		fmt.Fprintln(errOut, "error: not logged in (run: youdo login)")
		return exitcode.AuthError
	}

	tasks := taskstore.New(svc, sess, taskstore.WithLogger(logger), taskstore.WithClock(d.now))
	defer tasks.Close()

	logger.Debug("dispatch", "command", cmd.Name(), "config_dir", cfg.Dir, "store", cfg.Store)

	env := &commands.Env{
		Config:  cfg,
		Logger:  logger,
		KV:      store,
		Session: sess,
		Tasks:   tasks,
		In:      d.in,
		Now:     d.now,
		Google:  d.google,
	}
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

func reportFlagError(err error, errOut io.Writer) int {
	errStr := err.Error()
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	// Missing values ("flag needs an argument: -due") and bad values are
	// reported as the flag package words them.
	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}
