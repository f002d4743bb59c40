package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/session"
)

// refreshKey is the single singleflight key: there is one session per client
const refreshKey = "refresh"

// Refresh implements Refresher. Concurrent callers share one in-flight refresh
// call. A caller whose rejected token has already been replaced returns at once
// and retries with the new token.
func (c *Client) Refresh(ctx context.Context, failed string) error {
	if current := c.state.AccessToken(); current != "" && current != failed {
		return nil
	}

	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return nil, c.refresh(rctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh trades the persisted refresh token for a new access token and
// expires the session when that is not possible.
func (c *Client) refresh(ctx context.Context) error {
	refresh, ok, err := c.state.PersistedRefreshToken()
	if err != nil {
		return c.expire(err)
	}
	if !ok {
		return c.expire(ErrNoRefreshToken)
	}

	var out authmodel.RefreshResponse
	err = c.send(ctx, c.authClient, http.MethodPost, c.endpoints.Refresh, authmodel.RefreshRequest{Refresh: refresh}, &out, kindRefresh)
	if err == nil && out.Access == "" {
		err = fmt.Errorf("%w: refresh response carried no access token", ErrRequestFailed)
	}
	if err != nil {
		c.metrics.refresh("failure")
		return c.expire(err)
	}

	err = c.state.Rotate(refresh, out.Access, out.Refresh)
	if errors.Is(err, session.ErrSessionChanged) {
		// Signed out or signed in again while refreshing; the retry uses whatever is current.
		c.log.Info().Msg("session changed during refresh, dropping refreshed token")
		return nil
	}
	if err != nil {
		c.metrics.refresh("failure")
		return c.expire(err)
	}

	c.metrics.refresh("success")
	c.log.Debug().Bool("rotated", out.Refresh != "").Msg("access token refreshed")
	return nil
}

// expire clears the session, activates the unauthenticated entry point and
// returns the error the rejected request fails with.
func (c *Client) expire(cause error) error {
	if err := c.state.Clear(); err != nil {
		c.log.Error().Err(err).Msg("could not clear expired session")
	}
	c.metrics.expire()
	c.log.Warn().Err(cause).Msg("session expired")
	c.navigator.Unauthenticated()
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}
