package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/session"
)

// Login exchanges credentials for a token pair and establishes the session.
// The identity comes from the server when it supplies one and from username
// otherwise. Errors are returned as received: bad credentials match
// ErrAuthenticationRejected, missing fields ErrValidationFailure.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	var pair authmodel.TokenPair
	err := c.send(ctx, c.httpClient, http.MethodPost, c.endpoints.Token, authmodel.TokenRequest{
		Username: username,
		Password: password,
	}, &pair, kindIssuance)
	if err != nil {
		return session.Session{}, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return session.Session{}, fmt.Errorf("%w: issuance response carried no token pair", ErrRequestFailed)
	}

	sess := session.Session{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		Identity:     identityFrom(pair.User, username),
	}
	if err := c.state.Establish(sess); err != nil {
		return session.Session{}, err
	}
	c.log.Info().Str("username", sess.Username()).Msg("signed in")
	return sess, nil
}

func identityFrom(user *authmodel.UserInfo, username string) *session.Identity {
	if user == nil || user.Username == "" {
		return &session.Identity{Username: username}
	}
	identity := &session.Identity{
		Username: user.Username,
		Email:    user.Email,
	}
	if user.ID != nil {
		identity.ID = fmt.Sprint(user.ID)
	}
	return identity
}

// Register creates an account. It does not sign in; call Login afterwards for
// that. The success payload is returned undecoded.
func (c *Client) Register(ctx context.Context, username, email, password string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.send(ctx, c.httpClient, http.MethodPost, c.endpoints.Register, authmodel.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &out, kindGeneric)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Logout tells the server to invalidate the refresh token and clears the
// session. The server call is best effort: its failure is logged and the
// session is cleared regardless. Logout never fails.
func (c *Client) Logout(ctx context.Context) {
	refresh, ok, err := c.state.PersistedRefreshToken()
	switch {
	case err != nil:
		c.log.Warn().Err(err).Msg("could not read refresh token for logout")
	case ok:
		if err := c.send(ctx, c.httpClient, http.MethodPost, c.endpoints.Logout, authmodel.LogoutRequest{Refresh: refresh}, nil, kindGeneric); err != nil {
			c.log.Warn().Err(err).Msg("logout request failed")
		}
	}

	if err := c.state.Clear(); err != nil {
		c.log.Error().Err(err).Msg("could not clear session on logout")
	}
	c.log.Info().Msg("signed out")
}

// RequestPasswordReset asks the server to email a one-time password to email
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (authmodel.Detail, error) {
	var out authmodel.Detail
	err := c.send(ctx, c.authClient, http.MethodPost, c.endpoints.PasswordResetRequest, authmodel.PasswordResetRequest{Email: email}, &out, kindGeneric)
	return out, err
}

// ConfirmPasswordReset sets a new password using the emailed one-time password.
// The current session, if any, is left untouched.
func (c *Client) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) (authmodel.Detail, error) {
	var out authmodel.Detail
	err := c.send(ctx, c.authClient, http.MethodPost, c.endpoints.PasswordResetConfirm, authmodel.PasswordResetConfirm{
		Email:       email,
		OTP:         otp,
		NewPassword: newPassword,
	}, &out, kindGeneric)
	return out, err
}
