package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"youdo/internal/exitcode"
	"youdo/internal/service"
	"youdo/internal/taskstore"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// addFlags are shared by add and create.
type addFlags struct {
	description string
	priority    string
	due         string
}

func (f *addFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "desc", "", "")
	fs.StringVar(&f.description, "d", "", "")
	fs.StringVar(&f.priority, "priority", string(service.PriorityMedium), "")
	fs.StringVar(&f.priority, "p", string(service.PriorityMedium), "")
	fs.StringVar(&f.due, "due", "", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	flags addFlags
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "youdo add [--desc <text>] [--priority low|medium|high] [--due YYYY-MM-DD] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) { c.flags.register(fs) }

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, env, c.flags, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	flags addFlags
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "youdo create [--desc <text>] [--priority low|medium|high] [--due YYYY-MM-DD] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) { c.flags.register(fs) }

func (c *CreateCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, env, c.flags, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, env *Env, f addFlags, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := taskstore.Draft{
		Title:       title,
		Description: f.description,
		Priority:    service.Priority(strings.ToLower(f.priority)),
		Due:         f.due,
	}
	if err := env.Tasks.Create(ctx, draft); err != nil {
		return report(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
