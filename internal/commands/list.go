package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"youdo/internal/exitcode"
	"youdo/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `youdo` (no args) and `youdo list`.
type ListCmd struct {
	format string
	all    bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "youdo list [--all] [--output text|json|yaml]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "output", output.FormatText, "")
	fs.StringVar(&c.format, "o", output.FormatText, "")
	fs.BoolVar(&c.all, "all", false, "")
	fs.BoolVar(&c.all, "a", false, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if !output.ValidFormat(c.format) {
		fmt.Fprintf(errOut, "error: invalid output format: %s\n", c.format)
		return exitcode.UserError
	}

	if err := env.Tasks.Refresh(ctx); err != nil {
		return report(errOut, err)
	}

	now := env.now()
	view := output.NewListView(env.Tasks.Snapshot(now), now, c.all)
	if err := output.WriteList(out, c.format, view, env.styles(out)); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
