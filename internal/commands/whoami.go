package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"youdo/internal/exitcode"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the signed-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "youdo whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sess, ok := env.Session.Current()
	if !ok {
		fmt.Fprintln(errOut, "error: not logged in (run: youdo login)")
		return exitcode.AuthError
	}

	fmt.Fprintf(out, "%s <%s>\n", sess.User.Name, sess.User.Email)
	if claims, ok := env.Session.Claims(); ok && !claims.ExpiresAt.IsZero() {
		if claims.ExpiresAt.Before(env.now()) {
			fmt.Fprintf(out, "token expired %s\n", claims.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Fprintf(out, "token expires %s\n", claims.ExpiresAt.Format(time.RFC3339))
		}
	}
	return exitcode.Success
}
