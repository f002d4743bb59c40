package client

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Endpoints are the paths of the authentication endpoints, relative to the base URL
type Endpoints struct {
	Token                string // Credential issuance
	Refresh              string // Credential refresh
	Register             string // Account registration
	Logout               string // Refresh token invalidation
	PasswordResetRequest string // One-time password request
	PasswordResetConfirm string // Password change with a one-time password
}

// DefaultEndpoints returns the paths served by the StockPulse backend
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Token:                "/api/token/",
		Refresh:              "/api/token/refresh/",
		Register:             "/users/register/",
		Logout:               "/users/logout/",
		PasswordResetRequest: "/users/password-reset/request/",
		PasswordResetConfirm: "/users/password-reset/confirm/",
	}
}

const (
	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 30 * time.Second
)

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets the API base URL every relative path is appended to
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.rawBaseURL = baseURL
	}
}

// WithEndpoints overrides the authentication endpoint paths
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithTransport sets the transport under the pipeline
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// WithTimeout bounds each call, including its refresh and retry. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRefreshTimeout bounds the shared refresh call
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.refreshTimeout = d
	}
}

// WithNavigator sets what happens when a session is forcibly expired
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithMetrics records client activity in m
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithMiddleware appends stages after the built-in ones, closest to the transport
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.extra = append(c.extra, mw...)
	}
}
