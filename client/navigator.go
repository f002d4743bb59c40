package client

import "github.com/rs/zerolog"

// Navigator moves the user to the unauthenticated entry point once a session
// has been forcibly expired.
type Navigator interface {
	Unauthenticated()
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func()

func (f NavigatorFunc) Unauthenticated() {
	f()
}

type logNavigator struct {
	log zerolog.Logger
}

func (n logNavigator) Unauthenticated() {
	n.log.Warn().Msg("session expired, sign in again")
}
