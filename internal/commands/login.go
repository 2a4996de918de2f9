package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"youdo/internal/exitcode"
	"youdo/internal/session"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command. Missing credentials are
// prompted for on stdin.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in to YouDo" }
func (c *LoginCmd) Usage() string     { return "youdo login [--email <email>] [--password <password>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	p := newPrompter(env.In, errOut)
	email, err := p.valueOrAsk(c.email, "email")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	password, err := p.valueOrAsk(c.password, "password")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	sess, err := env.Session.Login(ctx, email, password)
	if err != nil {
		return report(errOut, err)
	}
	return loggedIn(env, sess, out)
}

// RegisterCmd creates an account and signs in to it.
type RegisterCmd struct {
	name     string
	email    string
	password string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create a YouDo account" }
func (c *RegisterCmd) Usage() string {
	return "youdo register [--name <name>] [--email <email>] [--password <password>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	p := newPrompter(env.In, errOut)
	answers := make([]string, 0, 3)
	for _, q := range [][2]string{{c.name, "name"}, {c.email, "email"}, {c.password, "password"}} {
		answer, err := p.valueOrAsk(q[0], q[1])
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		answers = append(answers, answer)
	}

	sess, err := env.Session.Register(ctx, answers[0], answers[1], answers[2])
	if err != nil {
		return report(errOut, err)
	}
	return loggedIn(env, sess, out)
}

func loggedIn(env *Env, sess session.Session, out io.Writer) int {
	if !env.Config.Quiet {
		fmt.Fprintf(out, "logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
	}
	return exitcode.Success
}
