package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-auth-client/client"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/store"
	"github.com/jrsteele09/go-auth-client/store/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testPassword = "secret-password"
	testEmail    = "alice@example.com"

	pathToken    = "/api/token/"
	pathRefresh  = "/api/token/refresh/"
	pathLogout   = "/users/logout/"
	pathHoldings = "/portfolio/holdings/"
)

// stubAPI is a scripted server: each path answers with its handler and every
// request is recorded.
type stubAPI struct {
	lock     sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	auth     map[string][]string
	bodies   map[string][]string
}

func newStubAPI(t *testing.T) (*stubAPI, *httptest.Server) {
	t.Helper()
	s := &stubAPI{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
		auth:     make(map[string][]string),
		bodies:   make(map[string][]string),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.lock.Lock()
		s.hits[r.URL.Path]++
		s.auth[r.URL.Path] = append(s.auth[r.URL.Path], r.Header.Get("Authorization"))
		s.bodies[r.URL.Path] = append(s.bodies[r.URL.Path], string(body))
		h, ok := s.handlers[r.URL.Path]
		s.lock.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *stubAPI) handle(path string, h http.HandlerFunc) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handlers[path] = h
}

func (s *stubAPI) hitCount(path string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.hits[path]
}

func (s *stubAPI) authHeaders(path string) []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.auth[path]...)
}

func (s *stubAPI) requestBodies(path string) []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.bodies[path]...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respond answers every request with status and body
func respond(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	}
}

// requireBearer answers 200 with body when the request carries token, 401 otherwise
func requireBearer(token string, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// testFixture holds a client wired to an in-memory store
type testFixture struct {
	repo        *memstore.Driver
	state       *session.State
	client      *client.Client
	navigations atomic.Int32
}

// setupTestFixture creates a client for baseURL. A non-nil seed is established
// before the client is created.
func setupTestFixture(t *testing.T, baseURL string, seed *session.Session, opts ...client.Option) *testFixture {
	t.Helper()

	repo, err := memstore.New()
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(map[string]string{store.KeyTourSeen: "true"}))

	f := &testFixture{repo: repo}
	f.state = session.Bootstrap(repo, zerolog.Nop())
	if seed != nil {
		require.NoError(t, f.state.Establish(*seed))
	}

	opts = append([]client.Option{
		client.WithBaseURL(baseURL),
		client.WithLogger(zerolog.Nop()),
		client.WithNavigator(client.NavigatorFunc(func() { f.navigations.Add(1) })),
	}, opts...)
	f.client, err = client.New(f.state, opts...)
	require.NoError(t, err)
	return f
}

func seedSession() *session.Session {
	return &session.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		Identity:     &session.Identity{Username: testUsername},
	}
}

// requireSessionKeysCleared checks the three session keys are gone and the
// tour key is untouched
func (f *testFixture) requireSessionKeysCleared(t *testing.T) {
	t.Helper()
	for _, k := range store.SessionKeys {
		_, ok, err := f.repo.Get(k)
		require.NoError(t, err)
		require.False(t, ok, k)
	}
	v, ok, err := f.repo.Get(store.KeyTourSeen)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", v)
	require.False(t, f.client.Authenticated())
}

func (f *testFixture) persisted(t *testing.T, key string) string {
	t.Helper()
	v, _, err := f.repo.Get(key)
	require.NoError(t, err)
	return v
}
