package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-auth-client/store"
	"github.com/rs/zerolog"
)

var (
	// ErrIncompleteSession is returned when establishing a session that lacks one of its parts
	ErrIncompleteSession = errors.New("session requires access token, refresh token and username")
	// ErrSessionChanged is returned by Rotate when the session was replaced or cleared
	// while a refresh was in flight
	ErrSessionChanged = errors.New("session changed during refresh")
)

// ChangeFunc observes completed session transitions. ok is false when the session was cleared.
type ChangeFunc func(current Session, ok bool)

// State owns the session of one client and keeps memory and the persisted
// store in step. All transitions are serialized, so observers never see a
// partially written session.
type State struct {
	repo      store.Repo
	log       zerolog.Logger
	lock      sync.RWMutex
	current   *Session
	observers []ChangeFunc
}

// Bootstrap restores the persisted session from repo. It performs no network
// I/O. A missing or malformed session starts the state empty; stray session
// keys of a malformed session are removed so that a later refresh cannot pick
// up a refresh token that belongs to nobody.
func Bootstrap(repo store.Repo, logger zerolog.Logger) *State {
	s := &State{
		repo: repo,
		log:  logger.With().Str("component", "session").Logger(),
	}

	sess, found, err := s.read()
	switch {
	case err != nil:
		s.log.Warn().Err(err).Msg("could not restore persisted session, starting signed out")
		if found {
			s.discard()
		}
	case found:
		s.current = sess
		s.log.Debug().Str("username", sess.Username()).Msg("restored persisted session")
	}
	return s
}

// Current returns a copy of the current session and whether one exists
func (s *State) Current() (Session, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return s.copyCurrent(), true
}

// Authenticated reports whether a session exists
func (s *State) Authenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.current != nil
}

// AccessToken returns the current access token or an empty string
func (s *State) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// PersistedRefreshToken reads the refresh token from the store
func (s *State) PersistedRefreshToken() (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok, err := s.repo.Get(store.KeyRefreshToken)
	if err != nil {
		return "", false, fmt.Errorf("read refresh token: %w", err)
	}
	return v, ok && v != "", nil
}

// OnChange registers fn to be called after every completed transition
func (s *State) OnChange(fn ChangeFunc) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.observers = append(s.observers, fn)
}

// Establish persists sess as one atomic update and then adopts it in memory
func (s *State) Establish(sess Session) error {
	if !sess.Valid() {
		return ErrIncompleteSession
	}
	user, err := json.Marshal(sess.Identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	s.lock.Lock()
	if err := s.repo.Upsert(map[string]string{
		store.KeyAccessToken:  sess.AccessToken,
		store.KeyRefreshToken: sess.RefreshToken,
		store.KeyUser:         string(user),
	}); err != nil {
		s.lock.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}
	identity := *sess.Identity
	sess.Identity = &identity
	s.current = &sess
	snapshot, observers := s.copyCurrent(), s.observers
	s.lock.Unlock()

	notify(observers, snapshot, true)
	return nil
}

// Rotate stores the access token minted by a refresh made with usedRefresh.
// refresh is the rotated refresh token, or empty when the server did not rotate.
// ErrSessionChanged is returned, and nothing is written, when the persisted
// refresh token is no longer usedRefresh.
func (s *State) Rotate(usedRefresh, access, refresh string) error {
	s.lock.Lock()
	persisted, ok, err := s.repo.Get(store.KeyRefreshToken)
	if err != nil {
		s.lock.Unlock()
		return fmt.Errorf("read refresh token: %w", err)
	}
	if !ok || persisted != usedRefresh {
		s.lock.Unlock()
		return ErrSessionChanged
	}

	entries := map[string]string{store.KeyAccessToken: access}
	if refresh != "" {
		entries[store.KeyRefreshToken] = refresh
	}
	if err := s.repo.Upsert(entries); err != nil {
		s.lock.Unlock()
		return fmt.Errorf("persist access token: %w", err)
	}

	if s.current != nil {
		s.current.AccessToken = access
		if refresh != "" {
			s.current.RefreshToken = refresh
		}
	} else if sess, found, err := s.read(); err == nil && found {
		s.current = sess
	}

	if s.current == nil {
		s.lock.Unlock()
		return nil
	}
	snapshot, observers := s.copyCurrent(), s.observers
	s.lock.Unlock()

	notify(observers, snapshot, true)
	return nil
}

// Clear removes exactly the session keys from the store and empties memory.
// Memory is emptied even when the store fails.
func (s *State) Clear() error {
	s.lock.Lock()
	err := s.repo.Delete(store.SessionKeys...)
	s.current = nil
	observers := s.observers
	s.lock.Unlock()

	notify(observers, Session{}, false)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// read loads the persisted session. found reports whether any session key was
// present; err is set when the keys are present but do not form a session.
func (s *State) read() (*Session, bool, error) {
	values := make(map[string]string, len(store.SessionKeys))
	for _, k := range store.SessionKeys {
		v, ok, err := s.repo.Get(k)
		if err != nil {
			return nil, false, err
		}
		if ok {
			values[k] = v
		}
	}
	if len(values) == 0 {
		return nil, false, nil
	}

	identity := &Identity{}
	if err := json.Unmarshal([]byte(values[store.KeyUser]), identity); err != nil {
		return nil, true, fmt.Errorf("decode persisted identity: %w", err)
	}
	sess := &Session{
		AccessToken:  values[store.KeyAccessToken],
		RefreshToken: values[store.KeyRefreshToken],
		Identity:     identity,
	}
	if !sess.Valid() {
		return nil, true, ErrIncompleteSession
	}
	return sess, true, nil
}

func (s *State) discard() {
	if err := s.repo.Delete(store.SessionKeys...); err != nil {
		s.log.Warn().Err(err).Msg("could not remove malformed session keys")
	}
}

// copyCurrent must be called with the lock held
func (s *State) copyCurrent() Session {
	c := *s.current
	if c.Identity != nil {
		identity := *c.Identity
		c.Identity = &identity
	}
	return c
}

func notify(observers []ChangeFunc, current Session, ok bool) {
	for _, fn := range observers {
		fn(current, ok)
	}
}
