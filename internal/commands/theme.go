package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"youdo/internal/exitcode"
	"youdo/internal/kv"
	"youdo/internal/output"
)

func init() {
	Register(&ThemeCmd{})
}

// ThemeCmd shows or sets the color theme.
type ThemeCmd struct{}

func (c *ThemeCmd) Name() string      { return "theme" }
func (c *ThemeCmd) Aliases() []string { return nil }
func (c *ThemeCmd) Synopsis() string  { return "Show or set the color theme" }
func (c *ThemeCmd) Usage() string     { return "youdo theme [light|dark]" }
func (c *ThemeCmd) NeedsAuth() bool   { return false }

func (c *ThemeCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ThemeCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, env.theme())
		return exitcode.Success
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	theme := args[0]
	if !output.ValidTheme(theme) {
		fmt.Fprintf(errOut, "error: unknown theme: %s (want light or dark)\n", theme)
		return exitcode.UserError
	}
	if err := env.KV.Set(kv.KeyTheme, theme); err != nil {
		fmt.Fprintf(errOut, "error: failed to save theme: %v\n", err)
		return exitcode.UserError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// theme returns the stored theme, defaulting to light.
func (e *Env) theme() string {
	if e.KV == nil {
		return output.ThemeLight
	}
	theme, ok, err := e.KV.Get(kv.KeyTheme)
	if err != nil || !ok || !output.ValidTheme(theme) {
		return output.ThemeLight
	}
	return theme
}

// styles returns the output styles for w in the stored theme.
func (e *Env) styles(w io.Writer) output.Styles {
	return output.NewStyles(w, e.theme())
}
