package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	cerrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

type loginCmd struct {
	app      *app
	username string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in and store the session" }
func (*loginCmd) Usage() string {
	return `stockpulse login -u <username> -p <password>

  Exchanges the credentials for an access and refresh token pair and stores
  them in the session file.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username")
	f.StringVar(&c.password, "p", "", "Password")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		return c.app.fail(cerrors.Wrapf(cerrors.ErrMissingInput, "login needs -u and -p"))
	}
	cl, err := c.app.open()
	if err != nil {
		return c.app.fail(err)
	}
	sess, err := cl.Login(ctx, c.username, c.password)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.banner(c.app.cfg.GetAppName())
	fmt.Fprintf(c.app.out, "Signed in as %s\n", sess.Username())
	return subcommands.ExitSuccess
}

type registerCmd struct {
	app      *app
	username string
	email    string
	password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account" }
func (*registerCmd) Usage() string {
	return `stockpulse register -u <username> -e <email> -p <password>
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username")
	f.StringVar(&c.email, "e", "", "Email address")
	f.StringVar(&c.password, "p", "", "Password")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cl, err := c.app.open()
	if err != nil {
		return c.app.fail(err)
	}
	if _, err := cl.Register(ctx, c.username, c.email, c.password); err != nil {
		return c.app.fail(err)
	}
	fmt.Fprintf(c.app.out, "Account %s created, run `stockpulse login` to sign in\n", c.username)
	return subcommands.ExitSuccess
}

type logoutCmd struct {
	app *app
}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "sign out and forget the session" }
func (*logoutCmd) Usage() string            { return "stockpulse logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (c *logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cl, err := c.app.open()
	if err != nil {
		return c.app.fail(err)
	}
	cl.Logout(ctx)
	fmt.Fprintln(c.app.out, "Signed out")
	return subcommands.ExitSuccess
}

type whoamiCmd struct {
	app *app
}

func (*whoamiCmd) Name() string             { return "whoami" }
func (*whoamiCmd) Synopsis() string         { return "show the signed in user" }
func (*whoamiCmd) Usage() string            { return "stockpulse whoami\n" }
func (*whoamiCmd) SetFlags(_ *flag.FlagSet) {}

func (c *whoamiCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cl, err := c.app.open()
	if err != nil {
		return c.app.fail(err)
	}
	sess, ok := cl.Session()
	if !ok {
		return c.app.fail(cerrors.ErrNotSignedIn)
	}
	fmt.Fprintln(c.app.out, sess.Username())
	if sess.Identity.Email != "" {
		fmt.Fprintln(c.app.out, sess.Identity.Email)
	}
	if exp := sess.Token().Expiry; !exp.IsZero() {
		fmt.Fprintf(c.app.out, "access token expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
	}
	return subcommands.ExitSuccess
}

type resetPasswordCmd struct {
	app      *app
	email    string
	otp      string
	password string
}

func (*resetPasswordCmd) Name() string     { return "reset-password" }
func (*resetPasswordCmd) Synopsis() string { return "reset a forgotten password" }
func (*resetPasswordCmd) Usage() string {
	return `stockpulse reset-password -e <email> [-otp <code> -p <new password>]

  Without -otp, asks the server to email a one-time password.
  With -otp and -p, sets the new password.
`
}

func (c *resetPasswordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "e", "", "Account email address")
	f.StringVar(&c.otp, "otp", "", "One-time password received by email")
	f.StringVar(&c.password, "p", "", "New password")
}

func (c *resetPasswordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		return c.app.fail(cerrors.Wrapf(cerrors.ErrMissingInput, "reset-password needs -e"))
	}
	cl, err := c.app.open()
	if err != nil {
		return c.app.fail(err)
	}

	if c.otp == "" {
		detail, err := cl.RequestPasswordReset(ctx, c.email)
		if err != nil {
			return c.app.fail(err)
		}
		fmt.Fprintln(c.app.out, detail.Detail)
		return subcommands.ExitSuccess
	}

	if c.password == "" {
		return c.app.fail(cerrors.Wrapf(cerrors.ErrMissingInput, "reset-password needs -p with -otp"))
	}
	detail, err := cl.ConfirmPasswordReset(ctx, c.email, c.otp, c.password)
	if err != nil {
		return c.app.fail(err)
	}
	fmt.Fprintln(c.app.out, detail.Detail)
	return subcommands.ExitSuccess
}
