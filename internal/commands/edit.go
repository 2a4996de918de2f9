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
	Register(&EditCmd{})
}

// EditCmd changes fields of a task. Only flags given on the command line
// are changed; --due none clears the due date.
type EditCmd struct {
	edit taskstore.Edit
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "youdo edit [--title <text>] [--desc <text>] [--priority low|medium|high] [--due YYYY-MM-DD|none] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.edit = taskstore.Edit{}
	fs.Func("title", "", func(s string) error {
		c.edit.Title = &s
		return nil
	})
	fs.Func("desc", "", func(s string) error {
		c.edit.Description = &s
		return nil
	})
	fs.Func("priority", "", func(s string) error {
		p := service.Priority(strings.ToLower(s))
		c.edit.Priority = &p
		return nil
	})
	fs.Func("due", "", func(s string) error {
		if strings.EqualFold(s, "none") {
			s = ""
		}
		c.edit.Due = &s
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	id, code := parseIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}
	e := c.edit
	if e.Title == nil && e.Description == nil && e.Priority == nil && e.Due == nil {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	if _, code := lookupTask(ctx, env, id, errOut); code != exitcode.Success {
		return code
	}
	if err := env.Tasks.Update(ctx, id, e); err != nil {
		return report(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
