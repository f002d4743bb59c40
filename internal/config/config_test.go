package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/client"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	c, err := config.FromEnv()
	require.NoError(t, err)

	require.Equal(t, "StockPulse", c.GetAppName())
	require.Equal(t, "DEV", c.GetEnv())
	require.True(t, c.IsDev())
	require.Equal(t, filepath.Join("./data", "session.json"), c.GetSessionFile())
	require.Equal(t, "http://localhost:8000", c.GetAPIURL())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.Equal(t, 30*time.Second, c.GetRefreshTimeout())
	require.Equal(t, client.DefaultEndpoints(), c.GetEndpoints())
	require.Equal(t, "info", c.GetLogLevel())
	require.Empty(t, c.GetLogFile())
}

func TestFromEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOCKPULSE_ENV", "PROD")
	t.Setenv("STOCKPULSE_FOLDER", dir)
	t.Setenv("STOCKPULSE_API_URL", "https://api.stockpulse.test/v1")
	t.Setenv("STOCKPULSE_REQUEST_TIMEOUT", "5s")
	t.Setenv("STOCKPULSE_REFRESH_TIMEOUT", "2s")
	t.Setenv("STOCKPULSE_LOGOUT_PATH", "/auth/logout/")
	t.Setenv("STOCKPULSE_LOG_LEVEL", "debug")

	c, err := config.FromEnv()
	require.NoError(t, err)

	require.False(t, c.IsDev())
	require.Equal(t, filepath.Join(dir, "session.json"), c.GetSessionFile())
	require.Equal(t, "https://api.stockpulse.test/v1", c.GetAPIURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.Equal(t, 2*time.Second, c.GetRefreshTimeout())
	require.Equal(t, "/auth/logout/", c.GetEndpoints().Logout)
	require.Equal(t, "/api/token/", c.GetEndpoints().Token)
	require.Equal(t, "debug", c.GetLogLevel())
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("STOCKPULSE_REQUEST_TIMEOUT", "soon")

	_, err := config.FromEnv()
	require.Error(t, err)
}
