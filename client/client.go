package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Client sends API requests on behalf of the session held in a session.State.
// Every request carries the current access token; a request rejected with 401
// is retried once after a refresh, and the session is expired when the refresh
// fails. A Client is safe for concurrent use.
type Client struct {
	rawBaseURL     string
	baseURL        *url.URL
	endpoints      Endpoints
	state          *session.State
	base           http.RoundTripper
	httpClient     *http.Client // full pipeline
	authClient     *http.Client // no bearer, no retry: refresh calls only
	timeout        time.Duration
	refreshTimeout time.Duration
	navigator      Navigator
	metrics        *Metrics
	log            zerolog.Logger
	extra          []Middleware
	exemptPaths    map[string]struct{}
	refreshGroup   singleflight.Group
}

// New creates a client for state. The state must already be bootstrapped.
func New(state *session.State, opts ...Option) (*Client, error) {
	if state == nil {
		return nil, errors.New("session state is required")
	}

	c := &Client{
		endpoints:      DefaultEndpoints(),
		state:          state,
		base:           http.DefaultTransport,
		timeout:        defaultTimeout,
		refreshTimeout: defaultRefreshTimeout,
		log:            log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "session-client").Logger()
	if c.navigator == nil {
		c.navigator = logNavigator{log: c.log}
	}

	baseURL, err := url.Parse(c.rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.rawBaseURL, err)
	}
	c.baseURL = baseURL

	c.exemptPaths = make(map[string]struct{}, 2)
	for _, p := range []string{c.endpoints.Token, c.endpoints.Refresh} {
		u, err := c.resolve(p)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", p, err)
		}
		c.exemptPaths[u.Path] = struct{}{}
	}

	stages := []Middleware{
		RequestID(),
		RefreshRetry(c, state, c.isAuthEndpoint, c.metrics),
		BearerAuth(state),
		Logging(c.log, c.metrics),
	}
	stages = append(stages, c.extra...)
	c.httpClient = &http.Client{
		Transport: ChainMiddleware(c.base, stages...),
		Timeout:   c.timeout,
	}
	c.authClient = &http.Client{
		Transport: ChainMiddleware(c.base, RequestID(), Logging(c.log, c.metrics)),
		Timeout:   c.refreshTimeout,
	}
	return c, nil
}

// State returns the session state the client works on
func (c *Client) State() *session.State {
	return c.state
}

// Session returns the current session
func (c *Client) Session() (session.Session, bool) {
	return c.state.Current()
}

// Authenticated reports whether a session exists
func (c *Client) Authenticated() bool {
	return c.state.Authenticated()
}

// isAuthEndpoint reports whether req targets credential issuance or refresh.
// Those requests never enter the refresh-and-retry flow.
func (c *Client) isAuthEndpoint(req *http.Request) bool {
	_, ok := c.exemptPaths[req.URL.Path]
	return ok
}

// resolve appends path to the base URL. Absolute URLs are returned unchanged.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() {
		return ref, nil
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return &u, nil
}

// Do sends req through the pipeline. A relative request URL is resolved
// against the base URL. Non-2xx responses are returned as *APIError with the
// body consumed and closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !req.URL.IsAbs() {
		u, err := c.resolve(req.URL.String())
		if err != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.URL = u
		req.Host = ""
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(req.Context(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp, kindGeneric)
	}
	return resp, nil
}

// Send issues a JSON request. in is encoded as the body when not nil; out, when
// not nil, receives the decoded response body.
func (c *Client) Send(ctx context.Context, method, path string, in, out any) error {
	return c.send(ctx, c.httpClient, method, path, in, out, kindGeneric)
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Send(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Send(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.Send(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Send(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, in, out any, kind endpointKind) error {
	u, err := c.resolve(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, kind)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, u.Path, err)
	}
	return nil
}

// transportError classifies an error returned by http.Client.Do
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, ErrSessionExpired) || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
}
