// Package apifake is an in-memory fake of the StockPulse API wire contract:
// JWT issuance and refresh with blacklisting, registration, logout, password
// reset, and a few protected resources. It exists for tests and local runs of
// the session client.
package apifake

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Route paths served by the fake
const (
	RouteToken                = "/api/token/"
	RouteTokenRefresh         = "/api/token/refresh/"
	RouteRegister             = "/users/register/"
	RouteLogout               = "/users/logout/"
	RoutePasswordResetRequest = "/users/password-reset/request/"
	RoutePasswordResetConfirm = "/users/password-reset/confirm/"
	RouteHoldings             = "/portfolio/holdings/"
	RouteWatchlist            = "/trading/watchlist/"
)

// Server implements http.Handler
type Server struct {
	router         chi.Router
	users          *userRepo
	tokens         *tokenIssuer
	secret         string
	accessTTL      time.Duration
	refreshTTL     time.Duration
	nowFunc        func() time.Time
	rotate         bool
	identityInPair bool

	lock           sync.Mutex
	hits           map[string]int
	lastAuth       map[string]string
	refreshFailure int
	refreshDelay   time.Duration
	offline        map[string]bool
	otps           map[string]string
	watchlists     map[int][]string
}

type Option func(*Server)

// WithTokenExpiry sets access and refresh token lifetimes
func WithTokenExpiry(access, refresh time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = access
		s.refreshTTL = refresh
	}
}

// WithRotation makes the refresh endpoint rotate refresh tokens
func WithRotation() Option {
	return func(s *Server) {
		s.rotate = true
	}
}

// WithIdentityInPair adds the user record to issuance responses
func WithIdentityInPair() Option {
	return func(s *Server) {
		s.identityInPair = true
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// New creates a fake server with no accounts
func New(options ...Option) *Server {
	s := &Server{
		users:      newUserRepo(),
		secret:     "apifake-secret",
		accessTTL:  time.Hour,
		refreshTTL: 24 * time.Hour,
		nowFunc:    time.Now,
		hits:       make(map[string]int),
		lastAuth:   make(map[string]string),
		offline:    make(map[string]bool),
		otps:       make(map[string]string),
		watchlists: make(map[int][]string),
	}
	for _, opt := range options {
		opt(s)
	}
	s.tokens = newTokenIssuer(s.secret, s.accessTTL, s.refreshTTL, s.nowFunc)
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recordMiddleware, s.offlineMiddleware)

	r.Post(RouteToken, s.handleToken)
	r.Post(RouteTokenRefresh, s.handleRefresh)
	r.Post(RouteRegister, s.handleRegister)
	r.Post(RoutePasswordResetRequest, s.handlePasswordResetRequest)
	r.Post(RoutePasswordResetConfirm, s.handlePasswordResetConfirm)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post(RouteLogout, s.handleLogout)
		r.Get(RouteHoldings, s.handleHoldings)
		r.Get(RouteWatchlist, s.handleWatchlist)
		r.Post(RouteWatchlist, s.handleAddToWatchlist)
	})
	return r
}

// AddUser creates an active account
func (s *Server) AddUser(username, email, password string) error {
	_, err := s.users.Create(username, email, password)
	return err
}

// DeactivateUser makes the account unable to sign in or refresh
func (s *Server) DeactivateUser(username string) error {
	return s.users.SetActive(username, false)
}

// RevokeAccessTokens invalidates every access token issued so far.
// Refresh tokens stay valid.
func (s *Server) RevokeAccessTokens() {
	s.tokens.revokeAccessTokens()
}

// FailRefresh makes the refresh endpoint answer with status. Zero restores it.
func (s *Server) FailRefresh(status int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshFailure = status
}

// DelayRefresh holds every refresh response for d
func (s *Server) DelayRefresh(d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshDelay = d
}

// SetOffline drops connections to path instead of answering
func (s *Server) SetOffline(path string, offline bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.offline[path] = offline
}

// Hits returns how many requests reached path
func (s *Server) Hits(path string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.hits[path]
}

// LastAuthorization returns the Authorization header of the latest request to path
func (s *Server) LastAuthorization(path string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastAuth[path]
}

// OTP returns the pending password reset code for email
func (s *Server) OTP(email string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.otps[email]
}

func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.hits[r.URL.Path]++
		s.lastAuth[r.URL.Path] = r.Header.Get("Authorization")
		s.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) offlineMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		offline := s.offline[r.URL.Path]
		s.lock.Unlock()
		if !offline {
			next.ServeHTTP(w, r)
			return
		}
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "offline", http.StatusServiceUnavailable)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	})
}
