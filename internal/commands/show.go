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
	Register(&ShowCmd{})
}

// ShowCmd prints one task in detail.
type ShowCmd struct {
	format string
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show a task" }
func (c *ShowCmd) Usage() string     { return "youdo show [--output text|json|yaml] <id>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "output", output.FormatText, "")
	fs.StringVar(&c.format, "o", output.FormatText, "")
}

func (c *ShowCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if !output.ValidFormat(c.format) {
		fmt.Fprintf(errOut, "error: invalid output format: %s\n", c.format)
		return exitcode.UserError
	}
	id, code := parseIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	task, code := lookupTask(ctx, env, id, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := output.WriteTask(out, c.format, output.NewTaskView(task, env.now()), env.styles(out)); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
