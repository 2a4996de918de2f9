package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"youdo/internal/exitcode"
	"youdo/internal/taskstore"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd flips the completion flag of one or more tasks.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle task completion" }
func (c *DoneCmd) Usage() string     { return "youdo done <id>..." }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ids, err := ParseTaskIDs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := env.Tasks.Refresh(ctx); err != nil {
		return report(errOut, err)
	}
	// Validate all ids before changing anything.
	for _, id := range ids {
		if _, ok := env.Tasks.Get(id); !ok {
			return report(errOut, fmt.Errorf("%w: %d", taskstore.ErrTaskNotFound, id))
		}
	}

	for _, id := range ids {
		if err := env.Tasks.Toggle(ctx, id); err != nil {
			return report(errOut, err)
		}
		if !env.Config.Quiet {
			task, _ := env.Tasks.Get(id)
			state := "reopened"
			if task.IsCompleted {
				state = "completed"
			}
			fmt.Fprintf(out, "%s #%d\n", state, id)
		}
	}
	return exitcode.Success
}
