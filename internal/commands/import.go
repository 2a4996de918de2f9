package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"youdo/internal/backend/googletasks"
	"youdo/internal/config"
	"youdo/internal/exitcode"
	"youdo/internal/service"
	"youdo/internal/taskstore"
)

func init() {
	Register(&ImportCmd{})
}

// GoogleSource lists open Google tasks.
type GoogleSource interface {
	OpenTasks(ctx context.Context, listName string) ([]googletasks.Item, error)
}

// GoogleFactory opens a GoogleSource.
type GoogleFactory func(ctx context.Context, cfg *config.Config) (GoogleSource, error)

// OpenGoogleTasks is the default GoogleFactory.
func OpenGoogleTasks(ctx context.Context, cfg *config.Config) (GoogleSource, error) {
	c, err := googletasks.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ImportCmd copies open Google tasks into YouDo.
type ImportCmd struct {
	listName string
	dryRun   bool
}

func (c *ImportCmd) Name() string      { return "import" }
func (c *ImportCmd) Aliases() []string { return nil }
func (c *ImportCmd) Synopsis() string  { return "Import open tasks from Google Tasks" }
func (c *ImportCmd) Usage() string     { return "youdo import [--list <list-name>] [--dry-run]" }
func (c *ImportCmd) NeedsAuth() bool   { return true }

func (c *ImportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.BoolVar(&c.dryRun, "dry-run", false, "")
}

func (c *ImportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	open := env.Google
	if open == nil {
		open = OpenGoogleTasks
	}
	src, err := open(ctx, env.Config)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	items, err := src.OpenTasks(ctx, c.listName)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if errors.Is(err, googletasks.ErrTokenRevoked) {
			return exitcode.AuthError
		}
		if errors.Is(err, googletasks.ErrListNotFound) || errors.Is(err, googletasks.ErrAmbiguousList) {
			return exitcode.UserError
		}
		return exitcode.BackendError
	}

	imported := 0
	for _, item := range items {
		draft := taskstore.Draft{
			Title:       item.Title,
			Description: item.Notes,
			Priority:    service.PriorityMedium,
		}
		if item.Due != nil {
			draft.Due = item.Due.UTC().Format(time.DateOnly)
		}

		if c.dryRun {
			fmt.Fprintf(out, "would import: %s\n", item.Title)
			continue
		}
		if err := env.Tasks.Create(ctx, draft); err != nil {
			env.logger().Warn("import stopped", "imported", imported, "error", err)
			return report(errOut, err)
		}
		imported++
	}

	if !c.dryRun && !env.Config.Quiet {
		fmt.Fprintf(out, "imported %d tasks\n", imported)
	}
	return exitcode.Success
}
