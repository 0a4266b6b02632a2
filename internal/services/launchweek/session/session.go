// Package session tracks the authenticated identity behind one page view.
//
// A Store holds a reference to the session owned by the external auth
// backend; it never creates, refreshes or revokes sessions itself.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAuthUnavailable reports that the auth backend could not be reached.
var ErrAuthUnavailable = errors.New("auth backend unavailable")

// Session is the authenticated identity issued by the auth backend.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session identifies a user and has not expired at now.
func (s Session) Valid(now time.Time) bool {
	if strings.TrimSpace(s.UserID) == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// EventKind names a session transition pushed by the auth backend.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventRefreshed EventKind = "refreshed"
)

// Event is one session transition. Session is empty for sign-out events.
type Event struct {
	Kind    EventKind
	Session Session
}

// Backend is the external auth collaborator.
type Backend interface {
	// GetCurrentSession returns the current session, or ok=false when
	// the viewer is anonymous.
	GetCurrentSession(ctx context.Context) (Session, bool, error)
	// Subscribe registers fn for future transitions.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Listener receives the current session after every transition.
type Listener func(Session, bool)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the only writer of session state for one page view.
type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	// emitMu serializes notifications so Close can wait out one in flight.
	emitMu sync.Mutex

	mu          sync.Mutex
	current     Session
	present     bool
	initialized bool
	closed      bool
	version     uint64
	unsubscribe func()
	listeners   map[int]Listener
	nextID      int
}

// NewStore builds a Store over backend. A nil backend yields a store that
// is always anonymous.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		logger:    zap.NewNop(),
		now:       time.Now,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize subscribes to pushed transitions and then fetches the current
// session once. Backend failures degrade to an anonymous session. A
// transition pushed while the fetch is in flight wins over the fetch result.
// Listeners registered before Initialize receive the first emission.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized || s.closed {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	since := s.version
	s.mu.Unlock()

	if s.backend == nil {
		s.commit(Session{}, false, &since)
		return
	}

	unsubscribe := s.backend.Subscribe(s.apply)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	current, ok, err := s.backend.GetCurrentSession(ctx)
	if err != nil {
		s.logger.Warn("session fetch degraded to anonymous", zap.Error(err))
		current, ok = Session{}, false
	}
	s.commit(current, ok, &since)
}

// Current returns the session, reporting false when anonymous or expired.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present || !s.current.Valid(s.now()) {
		return Session{}, false
	}
	return s.current, true
}

// OnChange registers listener for every transition. The returned function
// must be called when the owner goes away.
func (s *Store) OnChange(listener Listener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close unsubscribes from the backend. No listener runs after Close returns.
// Close must not be called from inside a listener.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.listeners = map[int]Listener{}
	s.mu.Unlock()

	// Wait out a notification that started before closed was set.
	s.emitMu.Lock()
	s.emitMu.Unlock() //nolint:staticcheck

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) apply(event Event) {
	switch event.Kind {
	case EventSignedOut:
		s.commit(Session{}, false, nil)
	case EventSignedIn, EventRefreshed:
		s.commit(event.Session, true, nil)
	}
}

// commit stores a transition and notifies listeners. Pushed transitions pass
// a nil since and bump the version; a fetched result passes the version read
// before the fetch and is dropped when a push landed in between.
func (s *Store) commit(current Session, ok bool, since *uint64) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if since != nil && s.version != *since {
		s.mu.Unlock()
		return
	}
	if since == nil {
		s.version++
	}
	if ok && !current.Valid(s.now()) {
		current, ok = Session{}, false
	}
	s.current, s.present = current, ok
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if listener, exists := s.listeners[id]; exists {
			listeners = append(listeners, listener)
		}
	}
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(current, ok)
	}
}
