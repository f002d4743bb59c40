package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxAttempts bounds the sends of one request: the original and one retry
const maxAttempts = 2

// Refresher mints a new access token after a request carrying failed was
// rejected. A nil error means the request may be retried.
type Refresher interface {
	Refresh(ctx context.Context, failed string) error
}

// RefreshRetry re-issues a request once after an authentication failure.
// Requests for which exempt returns true pass through untouched, whatever
// their status. The attempt count lives in this stage; the caller's request is
// never modified.
func RefreshRetry(refresher Refresher, tokens AccessTokenSource, exempt func(*http.Request) bool, m *Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if exempt(req) {
				return next.RoundTrip(req)
			}
			req, err := replayable(req)
			if err != nil {
				return nil, err
			}

			for attempt := 1; ; attempt++ {
				out, err := rewind(req, attempt)
				if err != nil {
					return nil, err
				}
				sent := tokens.AccessToken()
				resp, err := next.RoundTrip(out)
				if err != nil || resp.StatusCode != http.StatusUnauthorized || attempt == maxAttempts {
					return resp, err
				}
				discard(resp)

				if err := refresher.Refresh(req.Context(), sent); err != nil {
					return nil, err
				}
				m.retry()
			}
		})
	}
}

// replayable makes sure the body of req can be sent twice
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	r := req.Clone(req.Context())
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return r, nil
}

// rewind returns the request to send for attempt
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
