package client

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries the id shared by every attempt of one logical request
const RequestIDHeader = "X-Request-ID"

// Middleware is one stage of the request pipeline
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// ChainMiddleware wraps base with the stages in order; the first stage sees the
// request first and the response last.
func ChainMiddleware(base http.RoundTripper, mw ...Middleware) http.RoundTripper {
	chained := base
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// AccessTokenSource returns the access token to send, or an empty string
type AccessTokenSource interface {
	AccessToken() string
}

// BearerAuth attaches the access token current at send time
func BearerAuth(src AccessTokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			access := src.AccessToken()
			if access == "" {
				return next.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(r)
			return next.RoundTrip(r)
		})
	}
}

// RequestID stamps a request id unless the caller already set one
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			r.Header.Set(RequestIDHeader, uuid.New().String())
			return next.RoundTrip(r)
		})
	}
}

// Logging writes one debug line per round trip and counts responses by status
func Logging(logger zerolog.Logger, m *Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			ev := logger.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", req.Header.Get(RequestIDHeader)).
				Dur("duration", time.Since(start))
			if err != nil {
				m.request("error")
				ev.Err(err).Msg("round trip failed")
				return nil, err
			}
			m.request(strconv.Itoa(resp.StatusCode))
			ev.Int("status", resp.StatusCode).Msg("round trip")
			return resp, nil
		})
	}
}
