package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/jrsteele09/go-auth-client/client"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/store/filestore"
	"github.com/rs/zerolog"
)

// app is shared by every subcommand: it owns the configuration and opens the
// session client on first use.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	out    io.Writer
	errOut io.Writer
	banner func(string)
	client *client.Client
}

func newApp(c config.Config, logger zerolog.Logger) *app {
	return &app{
		cfg:    c,
		log:    logger,
		out:    os.Stdout,
		errOut: os.Stderr,
		banner: displayAppname,
	}
}

func register(commander *subcommands.Commander, a *app) {
	commander.Register(&loginCmd{app: a}, "session")
	commander.Register(&registerCmd{app: a}, "session")
	commander.Register(&logoutCmd{app: a}, "session")
	commander.Register(&whoamiCmd{app: a}, "session")
	commander.Register(&resetPasswordCmd{app: a}, "session")

	commander.Register(&getCmd{app: a}, "api")
	commander.Register(&postCmd{app: a}, "api")
}

// open restores the persisted session and builds the client around it
func (a *app) open() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	state := session.Bootstrap(filestore.New(a.cfg.GetSessionFile()), a.log)
	c, err := client.New(state,
		client.WithBaseURL(a.cfg.GetAPIURL()),
		client.WithEndpoints(a.cfg.GetEndpoints()),
		client.WithTimeout(a.cfg.GetRequestTimeout()),
		client.WithRefreshTimeout(a.cfg.GetRefreshTimeout()),
		client.WithLogger(a.log),
		client.WithNavigator(client.NavigatorFunc(a.signedOut)),
	)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// signedOut is where the user lands when the session expires
func (a *app) signedOut() {
	fmt.Fprintln(a.errOut, "Your session has expired. Run `stockpulse login` to sign in again.")
}

func (a *app) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.errOut, "Error: %s\n", err)
	return subcommands.ExitFailure
}
