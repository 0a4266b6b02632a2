package page

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

type fakeBackend struct {
	mu       sync.Mutex
	current  session.Session
	ok       bool
	block    chan struct{}
	started  chan struct{}
	callback func(session.Event)
}

func (f *fakeBackend) GetCurrentSession(ctx context.Context) (session.Session, bool, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return session.Session{}, false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.ok, nil
}

func (f *fakeBackend) Subscribe(fn func(session.Event)) func() {
	f.mu.Lock()
	f.callback = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.callback = nil
		f.mu.Unlock()
	}
}

func (f *fakeBackend) push(event session.Event) {
	f.mu.Lock()
	fn := f.callback
	f.mu.Unlock()
	if fn != nil {
		fn(event)
	}
}

// tableResolver resolves known user ids to ticket profiles.
type tableResolver struct {
	tickets map[string]profile.Profile
}

func (r tableResolver) ResolveQuery(_ context.Context, q profile.Query, current session.Session, ok bool) profile.Profile {
	var base profile.Profile
	if ok {
		base = r.tickets[current.UserID]
	}
	return profile.Resolve(q, base)
}

func liveSession(userID string) session.Session {
	return session.Session{ID: "s-" + userID, UserID: userID, Token: "t", ExpiresAt: time.Now().Add(time.Hour)}
}

func newController(backend *fakeBackend, q profile.Query, theme *ThemeScope) *Controller {
	return New(Config{
		Store: session.NewStore(backend),
		Resolver: tableResolver{tickets: map[string]profile.Profile{
			"u1": {ID: ptr("u1"), TicketNumber: ptr(7), Username: ptr("ada")},
		}},
		Query: q,
		Theme: theme,
	})
}

func TestControllerStartsInitializing(t *testing.T) {
	t.Parallel()

	c := newController(&fakeBackend{}, profile.Query{}, nil)
	if got := c.State().Status; got != StatusInitializing {
		t.Fatalf("Status = %v, want initializing", got)
	}
	if got := c.View(); got != ViewLoading {
		t.Fatalf("View() = %q, want %q", got, ViewLoading)
	}
}

func TestMountAnonymousShowsForm(t *testing.T) {
	t.Parallel()

	c := newController(&fakeBackend{}, profile.Query{}, nil)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer c.Unmount()

	if got := c.State().Status; got != StatusReady {
		t.Fatalf("Status = %v, want ready", got)
	}
	if got := c.View(); got != ViewForm {
		t.Fatalf("View() = %q, want %q", got, ViewForm)
	}
}

func TestMountSignedInShowsTicket(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{current: liveSession("u1"), ok: true}
	c := newController(backend, profile.Query{}, nil)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer c.Unmount()

	want := profile.Profile{ID: ptr("u1"), TicketNumber: ptr(7), Username: ptr("ada")}
	if diff := cmp.Diff(want, c.State().Profile); diff != "" {
		t.Fatalf("Profile mismatch (-want +got):\n%s", diff)
	}
	if got := c.View(); got != ViewTicket {
		t.Fatalf("View() = %q, want %q", got, ViewTicket)
	}
}

func TestQueryOverridesSessionProfile(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{current: liveSession("u1"), ok: true}
	c := newController(backend, profile.Query{Username: ptr("grace")}, nil)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer c.Unmount()

	if got := *c.State().Profile.Username; got != "grace" {
		t.Fatalf("Username = %q, want grace", got)
	}
}

func TestSessionChangeReResolves(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	c := newController(backend, profile.Query{}, nil)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer c.Unmount()
	first := <-c.Updates()

	backend.push(session.Event{Kind: session.EventSignedIn, Session: liveSession("u1")})

	select {
	case got := <-c.Updates():
		if got.View() != ViewTicket {
			t.Fatalf("View() = %q, want %q", got.View(), ViewTicket)
		}
		if got.Generation <= first.Generation {
			t.Fatalf("Generation = %d, want > %d", got.Generation, first.Generation)
		}
	case <-time.After(time.Second):
		t.Fatal("no update after sign-in")
	}

	backend.push(session.Event{Kind: session.EventSignedOut})
	if got := (<-c.Updates()).View(); got != ViewForm {
		t.Fatalf("View() after sign-out = %q, want %q", got, ViewForm)
	}
}

func TestInteractMovesToInteractive(t *testing.T) {
	t.Parallel()

	c := newController(&fakeBackend{}, profile.Query{Name: ptr("Draft")}, nil)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer c.Unmount()

	state, err := c.Interact(profile.Query{Name: ptr("Ada"), TicketNumber: ptr(42)})
	if err != nil {
		t.Fatalf("Interact() error = %v", err)
	}
	if state.Status != StatusInteractive {
		t.Fatalf("Status = %v, want interactive", state.Status)
	}
	if got := *state.Profile.Name; got != "Ada" {
		t.Fatalf("Name = %q, want Ada", got)
	}
	if state.View() != ViewTicket {
		t.Fatalf("View() = %q, want %q", state.View(), ViewTicket)
	}
}

// gatedResolver blocks the first signed-in resolution until gate closes.
type gatedResolver struct {
	tableResolver
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (r *gatedResolver) ResolveQuery(ctx context.Context, q profile.Query, current session.Session, ok bool) profile.Profile {
	if ok {
		r.once.Do(func() {
			close(r.entered)
			<-r.gate
		})
	}
	return r.tableResolver.ResolveQuery(ctx, q, current, ok)
}

func TestInteractSurvivesInFlightSessionResolution(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	resolver := &gatedResolver{
		tableResolver: tableResolver{tickets: map[string]profile.Profile{
			"u1": {ID: ptr("u1"), TicketNumber: ptr(7), Username: ptr("ada")},
		}},
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	c := New(Config{Store: session.NewStore(backend), Resolver: resolver})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer c.Unmount()

	pushed := make(chan struct{})
	go func() {
		defer close(pushed)
		backend.push(session.Event{Kind: session.EventSignedIn, Session: liveSession("u1")})
	}()
	<-resolver.entered

	state, err := c.Interact(profile.Query{Name: ptr("Ada")})
	if err != nil {
		t.Fatalf("Interact() error = %v", err)
	}
	if state.Status != StatusInteractive {
		t.Fatalf("Status after Interact = %v, want interactive", state.Status)
	}
	close(resolver.gate)
	<-pushed

	if got := c.State(); got.Status != StatusInteractive || got.Generation != state.Generation {
		t.Fatalf("State = %+v, want interactive generation %d kept", got, state.Generation)
	}

	backend.push(session.Event{Kind: session.EventRefreshed, Session: liveSession("u1")})
	got := c.State()
	if got.Status != StatusInteractive {
		t.Fatalf("Status after refresh = %v, want interactive", got.Status)
	}
	if got.Profile.Name == nil || *got.Profile.Name != "Ada" {
		t.Fatalf("Name after refresh = %v, want Ada", got.Profile.Name)
	}
}

func TestMountAppliesDarkThemeAndUnmountRestores(t *testing.T) {
	t.Parallel()

	theme := NewThemeScope(ThemeLight)
	c := newController(&fakeBackend{}, profile.Query{}, theme)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if got := theme.Current(); got != ThemeDark {
		t.Fatalf("theme while mounted = %q, want dark", got)
	}
	c.Unmount()
	if got := theme.Current(); got != ThemeLight {
		t.Fatalf("theme after unmount = %q, want light", got)
	}
}

func TestUnmountDuringPendingFetchDoesNotWrite(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		current: liveSession("u1"),
		ok:      true,
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := newController(backend, profile.Query{}, nil)

	done := make(chan error, 1)
	go func() { done <- c.Mount(context.Background()) }()
	<-backend.started

	c.Unmount()
	close(backend.block)
	if err := <-done; err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	if got := c.State(); got.Status != StatusInitializing || got.Generation != 0 {
		t.Fatalf("State after unmount = %+v, want untouched", got)
	}
	if _, open := <-c.Updates(); open {
		t.Fatal("Updates delivered a state after unmount")
	}
	backend.push(session.Event{Kind: session.EventSignedIn, Session: liveSession("u1")})
	if got := c.State().Status; got != StatusInitializing {
		t.Fatalf("Status after late push = %v, want initializing", got)
	}
}

func TestMountTwiceFails(t *testing.T) {
	t.Parallel()

	c := newController(&fakeBackend{}, profile.Query{}, nil)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if err := c.Mount(context.Background()); err != ErrMounted {
		t.Fatalf("second Mount() error = %v, want %v", err, ErrMounted)
	}
	c.Unmount()
	if _, err := c.Interact(profile.Query{}); err != ErrUnmounted {
		t.Fatalf("Interact() after unmount error = %v, want %v", err, ErrUnmounted)
	}
}

func TestThemeScopeRestoresOutOfOrder(t *testing.T) {
	t.Parallel()

	scope := NewThemeScope(ThemeSystem)
	restoreDark := scope.Override(ThemeDark)
	restoreLight := scope.Override(ThemeLight)
	restoreDark()
	if got := scope.Current(); got != ThemeLight {
		t.Fatalf("Current() = %q, want light", got)
	}
	restoreLight()
	restoreLight()
	if got := scope.Current(); got != ThemeSystem {
		t.Fatalf("Current() = %q, want system", got)
	}
}
