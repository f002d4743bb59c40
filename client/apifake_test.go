package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/apifake"
	"github.com/jrsteele09/go-auth-client/client"
	"github.com/jrsteele09/go-auth-client/store"
	"github.com/stretchr/testify/require"
)

func setupFakeAPI(t *testing.T, opts ...apifake.Option) (*apifake.Server, *httptest.Server) {
	t.Helper()
	api := apifake.New(opts...)
	require.NoError(t, api.AddUser(testUsername, testEmail, testPassword))
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func loggedIn(t *testing.T, srv *httptest.Server, opts ...client.Option) *testFixture {
	t.Helper()
	f := setupTestFixture(t, srv.URL, nil, opts...)
	_, err := f.client.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	return f
}

func TestFakeAPI_RequestsCarryCurrentToken(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)

	var holdings []apifake.Holding
	require.NoError(t, f.client.Get(context.Background(), apifake.RouteHoldings, &holdings))

	require.Len(t, holdings, 2)
	require.Equal(t, "Bearer "+f.state.AccessToken(), api.LastAuthorization(apifake.RouteHoldings))
	require.Equal(t, 0, api.Hits(apifake.RouteTokenRefresh))
}

func TestFakeAPI_IdentityFromServer(t *testing.T) {
	_, srv := setupFakeAPI(t, apifake.WithIdentityInPair())
	f := loggedIn(t, srv)

	sess, ok := f.client.Session()
	require.True(t, ok)
	require.Equal(t, testUsername, sess.Identity.Username)
	require.Equal(t, testEmail, sess.Identity.Email)
	require.Equal(t, "1", sess.Identity.ID)
	require.False(t, sess.Token().Expiry.IsZero())
}

func TestFakeAPI_RefreshAfterRevocation(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)
	before := f.state.AccessToken()

	api.RevokeAccessTokens()
	require.NoError(t, f.client.Get(context.Background(), apifake.RouteHoldings, nil))

	after := f.state.AccessToken()
	require.NotEqual(t, before, after)
	require.Equal(t, 2, api.Hits(apifake.RouteHoldings))
	require.Equal(t, 1, api.Hits(apifake.RouteTokenRefresh))
	require.Equal(t, "Bearer "+after, api.LastAuthorization(apifake.RouteHoldings))
	require.Empty(t, api.LastAuthorization(apifake.RouteTokenRefresh))
	require.Equal(t, after, f.persisted(t, store.KeyAccessToken))
}

func TestFakeAPI_RetryResendsBody(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)

	api.RevokeAccessTokens()
	var item apifake.WatchlistItem
	require.NoError(t, f.client.Post(context.Background(), apifake.RouteWatchlist, apifake.WatchlistItem{Symbol: "aapl"}, &item))
	require.Equal(t, "AAPL", item.Symbol)

	var items []apifake.WatchlistItem
	require.NoError(t, f.client.Get(context.Background(), apifake.RouteWatchlist, &items))
	require.Equal(t, []apifake.WatchlistItem{{Symbol: "AAPL"}}, items)
}

func TestFakeAPI_ConcurrentRejectionsShareOneRefresh(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)

	api.RevokeAccessTokens()
	api.DelayRefresh(200 * time.Millisecond)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.client.Get(context.Background(), apifake.RouteHoldings, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, api.Hits(apifake.RouteTokenRefresh))
	require.True(t, f.client.Authenticated())
}

func TestFakeAPI_RefreshTokenRotation(t *testing.T) {
	api, srv := setupFakeAPI(t, apifake.WithRotation())
	f := loggedIn(t, srv)
	original, _, err := f.state.PersistedRefreshToken()
	require.NoError(t, err)

	api.RevokeAccessTokens()
	require.NoError(t, f.client.Get(context.Background(), apifake.RouteHoldings, nil))

	rotated, ok, err := f.state.PersistedRefreshToken()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, original, rotated)

	// the rotated token keeps working, the original is blacklisted
	api.RevokeAccessTokens()
	require.NoError(t, f.client.Get(context.Background(), apifake.RouteHoldings, nil))
	require.Equal(t, 2, api.Hits(apifake.RouteTokenRefresh))

	err = f.client.Post(context.Background(), apifake.RouteTokenRefresh, map[string]string{"refresh": original}, nil)
	require.ErrorIs(t, err, client.ErrRequestFailed)
}

func TestFakeAPI_RefreshFailureExpiresSession(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)

	api.RevokeAccessTokens()
	api.FailRefresh(http.StatusUnauthorized)

	err := f.client.Get(context.Background(), apifake.RouteHoldings, nil)
	require.ErrorIs(t, err, client.ErrSessionExpired)
	require.ErrorIs(t, err, client.ErrAuthenticationRejected)

	f.requireSessionKeysCleared(t)
	require.Equal(t, int32(1), f.navigations.Load())
}

func TestFakeAPI_DeactivatedUserExpires(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)

	require.NoError(t, api.DeactivateUser(testUsername))
	err := f.client.Get(context.Background(), apifake.RouteHoldings, nil)
	require.ErrorIs(t, err, client.ErrSessionExpired)
	require.Equal(t, int32(1), f.navigations.Load())

	_, err = f.client.Login(context.Background(), testUsername, testPassword)
	require.ErrorIs(t, err, client.ErrAuthenticationRejected)
}

func TestFakeAPI_LogoutBlacklistsRefreshToken(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)
	refresh, _, err := f.state.PersistedRefreshToken()
	require.NoError(t, err)

	f.client.Logout(context.Background())

	require.Equal(t, 1, api.Hits(apifake.RouteLogout))
	f.requireSessionKeysCleared(t)

	err = f.client.Post(context.Background(), apifake.RouteTokenRefresh, map[string]string{"refresh": refresh}, nil)
	require.ErrorIs(t, err, client.ErrRequestFailed)
}

func TestFakeAPI_LogoutWhileServerUnreachable(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := loggedIn(t, srv)

	api.SetOffline(apifake.RouteLogout, true)
	f.client.Logout(context.Background())

	f.requireSessionKeysCleared(t)
	require.Equal(t, int32(0), f.navigations.Load())
}

func TestFakeAPI_RegisterThenLogin(t *testing.T) {
	_, srv := setupFakeAPI(t)
	f := setupTestFixture(t, srv.URL, nil)

	out, err := f.client.Register(context.Background(), "bob", "bob@example.com", "bob-password")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":2,"username":"bob","email":"bob@example.com"}`, string(out))
	require.False(t, f.client.Authenticated())

	_, err = f.client.Register(context.Background(), "bob", "bob@example.com", "short")
	require.ErrorIs(t, err, client.ErrValidationFailure)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "A user with that username already exists.", apiErr.FieldError("username"))
	require.Equal(t, "Ensure this field has at least 8 characters.", apiErr.FieldError("password"))

	sess, err := f.client.Login(context.Background(), "bob", "bob-password")
	require.NoError(t, err)
	require.Equal(t, "bob", sess.Username())
}

func TestFakeAPI_PasswordReset(t *testing.T) {
	api, srv := setupFakeAPI(t)
	f := setupTestFixture(t, srv.URL, nil)
	ctx := context.Background()

	detail, err := f.client.RequestPasswordReset(ctx, testEmail)
	require.NoError(t, err)
	require.NotEmpty(t, detail.Detail)
	otp := api.OTP(testEmail)
	require.Len(t, otp, 6)

	_, err = f.client.ConfirmPasswordReset(ctx, testEmail, "not-it", "new-password")
	require.ErrorIs(t, err, client.ErrValidationFailure)

	_, err = f.client.ConfirmPasswordReset(ctx, testEmail, otp, "new-password")
	require.NoError(t, err)
	require.False(t, f.client.Authenticated())

	_, err = f.client.Login(ctx, testUsername, testPassword)
	require.ErrorIs(t, err, client.ErrAuthenticationRejected)
	_, err = f.client.Login(ctx, testUsername, "new-password")
	require.NoError(t, err)
}
