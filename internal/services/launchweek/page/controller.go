// Package page drives one launch week page view from session changes to
// the ticket, form or loading view.
package page

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"go.uber.org/zap"
)

var (
	// ErrMounted is returned when Mount is called twice.
	ErrMounted = errors.New("page already mounted")
	// ErrUnmounted is returned for operations after Unmount.
	ErrUnmounted = errors.New("page unmounted")
)

// Status is the controller state.
type Status int

const (
	StatusInitializing Status = iota
	StatusReady
	StatusInteractive
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusInteractive:
		return "interactive"
	default:
		return "initializing"
	}
}

// View selects the visible sub-view.
type View string

const (
	ViewLoading View = "loading"
	ViewForm    View = "form"
	ViewTicket  View = "ticket"
)

// State is a snapshot of the controller.
type State struct {
	Status     Status
	Profile    profile.Profile
	Generation uint64
}

// View maps the state to its sub-view.
func (s State) View() View {
	switch {
	case s.Status == StatusInitializing:
		return ViewLoading
	case s.Profile.HasTicket():
		return ViewTicket
	default:
		return ViewForm
	}
}

// SessionStore is the page-scoped session source.
type SessionStore interface {
	Initialize(ctx context.Context)
	Current() (session.Session, bool)
	OnChange(listener session.Listener) (unsubscribe func())
	Close()
}

// Resolver derives the profile for a query and session.
type Resolver interface {
	ResolveQuery(ctx context.Context, q profile.Query, current session.Session, ok bool) profile.Profile
}

// Config wires a Controller.
type Config struct {
	Store    SessionStore
	Resolver Resolver
	Query    profile.Query
	// Theme is the page theme scope. Mount overrides it with ThemeDark.
	Theme  *ThemeScope
	Logger *zap.Logger
}

// Controller owns the page state. It is the only writer of State.
type Controller struct {
	store    SessionStore
	resolver Resolver
	theme    *ThemeScope
	logger   *zap.Logger

	mu           sync.Mutex
	query        profile.Query
	state        State
	generation   uint64
	interactive  bool
	mounted      bool
	unmounted    bool
	ctx          context.Context
	cancel       context.CancelFunc
	unsubscribe  func()
	restoreTheme func()
	updates      chan State
}

// New builds an unmounted Controller in StatusInitializing.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := cfg.Theme
	if theme == nil {
		theme = NewThemeScope(ThemeSystem)
	}
	return &Controller{
		store:    cfg.Store,
		resolver: cfg.Resolver,
		theme:    theme,
		logger:   logger,
		query:    cfg.Query,
		updates:  make(chan State, 1),
	}
}

// Mount applies the dark theme, subscribes to the session store and runs
// its initial fetch. It returns once the first session emission has been
// resolved, or once ctx is done.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if c.mounted {
		c.mu.Unlock()
		return ErrMounted
	}
	c.mounted = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.restoreTheme = c.theme.Override(ThemeDark)
	mountCtx := c.ctx
	c.mu.Unlock()

	if c.store == nil {
		c.onSession(session.Session{}, false)
		return nil
	}

	unsubscribe := c.store.OnChange(c.onSession)
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		unsubscribe()
		return ErrUnmounted
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.store.Initialize(mountCtx)

	// A store initialized elsewhere emits nothing new.
	c.mu.Lock()
	pending := !c.unmounted && c.state.Status == StatusInitializing && c.generation == 0
	c.mu.Unlock()
	if pending {
		current, ok := c.store.Current()
		c.onSession(current, ok)
	}
	return nil
}

// Interact moves the page to StatusInteractive, re-resolving with the
// submitted fields layered over the page query.
func (c *Controller) Interact(submitted profile.Query) (State, error) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return State{}, ErrUnmounted
	}
	if !c.mounted {
		c.mu.Unlock()
		return State{}, errors.New("page not mounted")
	}
	c.query = mergeQuery(submitted, c.query)
	c.interactive = true
	c.mu.Unlock()

	var (
		current session.Session
		ok      bool
	)
	if c.store != nil {
		current, ok = c.store.Current()
	}
	c.resolve(current, ok)
	return c.State(), nil
}

// Unmount restores the theme, unsubscribes from the store and cancels
// in-flight work. State never changes after Unmount; Updates is closed.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	cancel, unsubscribe, restore := c.cancel, c.unsubscribe, c.restoreTheme
	c.cancel, c.unsubscribe, c.restoreTheme = nil, nil, nil
	close(c.updates)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	if c.store != nil {
		c.store.Close()
	}
	if restore != nil {
		restore()
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the visible sub-view.
func (c *Controller) View() View {
	return c.State().View()
}

// Theme returns the theme currently applied to the page.
func (c *Controller) Theme() Theme {
	return c.theme.Current()
}

// Updates delivers the latest state after each change. Slow readers only
// see the newest state. The channel is closed by Unmount.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

func (c *Controller) onSession(current session.Session, ok bool) {
	c.resolve(current, ok)
}

// resolve runs the resolver outside the lock and commits the result only
// if no newer resolution started meanwhile. Once Interact has run, every
// later resolution lands in StatusInteractive.
func (c *Controller) resolve(current session.Session, ok bool) {
	c.mu.Lock()
	if c.unmounted || c.ctx == nil {
		c.mu.Unlock()
		return
	}
	c.generation++
	generation := c.generation
	next := StatusReady
	if c.interactive {
		next = StatusInteractive
	}
	query := c.query
	ctx := c.ctx
	c.mu.Unlock()

	var resolved profile.Profile
	if c.resolver != nil {
		resolved = c.resolver.ResolveQuery(ctx, query, current, ok)
	} else {
		resolved = profile.Resolve(query, profile.Profile{})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	if generation != c.generation {
		c.logger.Debug("dropped stale profile resolution",
			zap.Uint64("generation", generation),
			zap.Uint64("latest", c.generation),
		)
		return
	}
	c.state = State{Status: next, Profile: resolved, Generation: generation}
	select {
	case <-c.updates:
	default:
	}
	c.updates <- c.state
}

func mergeQuery(override, base profile.Query) profile.Query {
	out := base
	if override.ID != nil {
		out.ID = override.ID
	}
	if override.TicketNumber != nil {
		out.TicketNumber = override.TicketNumber
	}
	if override.Name != nil {
		out.Name = override.Name
	}
	if override.Username != nil {
		out.Username = override.Username
	}
	if override.Golden != nil {
		out.Golden = override.Golden
	}
	if override.BackgroundVariant != nil {
		out.BackgroundVariant = override.BackgroundVariant
	}
	out.Malformed = append(append([]string(nil), base.Malformed...), override.Malformed...)
	return out
}
