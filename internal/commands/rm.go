package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"youdo/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command. Deletion asks for confirmation unless
// --yes is given.
type RmCmd struct {
	yes bool
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "youdo rm [--yes] <id>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	id, code := parseIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	task, code := lookupTask(ctx, env, id, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := env.Tasks.RequestDelete(id); err != nil {
		return report(errOut, err)
	}

	if !c.yes {
		p := newPrompter(env.In, errOut)
		if !p.confirm(fmt.Sprintf("delete task %d %q?", id, task.Title)) {
			env.Tasks.CancelDelete()
			if !env.Config.Quiet {
				fmt.Fprintln(out, "cancelled")
			}
			return exitcode.UserError
		}
	}

	if err := env.Tasks.ConfirmDelete(ctx); err != nil {
		return report(errOut, err)
	}
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
