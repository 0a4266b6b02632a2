// Package modulehandler provides the shared scaffold launch week module
// handlers embed: per-request page controllers, localization, ticket
// rendering and error responses.
package modulehandler

import (
	"context"
	"net/http"
	"strings"

	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/page"
	webi18n "github.com/louisbranch/launchweek/internal/services/launchweek/platform/i18n"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/pagerender"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/requestmeta"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/weberror"
	"github.com/louisbranch/launchweek/internal/services/launchweek/presence"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/render"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"github.com/louisbranch/launchweek/internal/services/launchweek/templates"
	"go.uber.org/zap"
)

// Base carries the shared collaborators module handlers need.
type Base struct {
	deps module.Dependencies
}

// NewBase builds a handler base over deps.
func NewBase(deps module.Dependencies) Base {
	return Base{deps: deps}
}

// Deps returns the module dependencies.
func (b Base) Deps() module.Dependencies {
	return b.deps
}

// Logger returns the module logger.
func (b Base) Logger() *zap.Logger {
	return b.deps.LoggerOrNop()
}

// PageLocalizer resolves a localizer and language tag from the request.
func (b Base) PageLocalizer(w http.ResponseWriter, r *http.Request) (webi18n.Localizer, string) {
	return webi18n.ResolveLocalizer(w, r)
}

// WriteError renders a localized module error response.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, b.Logger())
}

// WriteNotFound renders the not-found page.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound)
}

// Device returns the browser's device id, issuing one when missing.
// Failures leave the page without pushed session updates.
func (b Base) Device(w http.ResponseWriter, r *http.Request) string {
	device, err := sessioncookie.EnsureDevice(w, r, b.deps.SchemePolicy)
	if err != nil {
		b.Logger().Warn("device id unavailable", zap.Error(err))
		return ""
	}
	return device
}

// NewController builds the page controller for one page view, with its
// own session store bound to the request's token and device.
func (b Base) NewController(r *http.Request, device string, query profile.Query) *page.Controller {
	token, _ := sessioncookie.Read(r)
	backend := auth.NewBackend(b.deps.Tokens, b.deps.Hub, token, device)
	store := session.NewStore(backend,
		session.WithLogger(b.Logger()),
		session.WithClock(b.deps.NowOrDefault),
	)
	resolver := b.deps.Resolver
	if resolver == nil {
		resolver = profile.NewResolver(profile.ResolverConfig{Logger: b.Logger()})
	}
	return page.New(page.Config{
		Store:    store,
		Resolver: resolver,
		Query:    query,
		Theme:    page.NewThemeScope(page.ThemeSystem),
		Logger:   b.Logger(),
	})
}

// FetchPresence returns the participant snapshot, empty when unconfigured.
func (b Base) FetchPresence(ctx context.Context) presence.Snapshot {
	if b.deps.Presence == nil {
		return presence.Snapshot{}
	}
	return b.deps.Presence.Fetch(ctx)
}

// Render composes the artifact for a controller state.
func (b Base) Render(ctx context.Context, state page.State, snap presence.Snapshot) render.Artifact {
	renderer := b.deps.Renderer
	if renderer == nil {
		renderer = render.New(render.WithLogger(b.Logger()))
	}
	return renderer.Render(ctx, state.Profile, snap)
}

// TicketView maps a controller state onto the ticket fragment data.
func (b Base) TicketView(r *http.Request, state page.State, artifact render.Artifact, snap presence.Snapshot) templates.TicketView {
	view := templates.TicketView{
		State:    string(state.View()),
		Artifact: artifact,
		Presence: snap.Participants(),
		ClaimURL: routepath.Claim,
	}
	if username, ok := state.Profile.Handle(); ok && state.Profile.HasTicket() {
		view.ShareURL = b.BaseURL(r) + routepath.ShareLink(username)
	}
	if state.View() == page.ViewForm {
		if state.Profile.Name != nil {
			view.Form.Name = *state.Profile.Name
		}
		if state.Profile.Username != nil {
			view.Form.Username = *state.Profile.Username
		}
	}
	return view
}

// BaseURL returns the absolute origin for share links.
func (b Base) BaseURL(r *http.Request) string {
	return requestmeta.BaseURL(r, b.deps.PublicURL, b.deps.SchemePolicy)
}

// Head builds document metadata for the launch week page.
func (b Base) Head(r *http.Request, loc webi18n.Localizer, lang string, theme page.Theme, state page.State) templates.Head {
	head := templates.Head{
		Title:        templates.T(loc, "launchweek.title"),
		Description:  templates.T(loc, "launchweek.meta.description"),
		Lang:         lang,
		Theme:        string(theme),
		CanonicalURL: b.BaseURL(r) + r.URL.RequestURI(),
	}
	if username, ok := state.Profile.Handle(); ok {
		head.Title = strings.TrimSpace(state.Profile.DisplayName() + " " + state.Profile.TicketLabel())
		head.ImageURL = b.BaseURL(r) + routepath.TicketImage(username)
	}
	for _, option := range webi18n.LanguageOptions(r, lang) {
		head.Languages = append(head.Languages, templates.LanguageOption(option))
	}
	return head
}

// TicketPage describes one render of the launch week page.
type TicketPage struct {
	Controller *page.Controller
	Presence   presence.Snapshot
	Form       templates.ClaimForm
	StatusCode int
}

// WriteTicketPage renders the controller's current state as the full page,
// or as the ticket fragment for HTMX requests.
func (b Base) WriteTicketPage(w http.ResponseWriter, r *http.Request, p TicketPage) {
	loc, lang := b.PageLocalizer(w, r)
	state := p.Controller.State()
	artifact := b.Render(r.Context(), state, p.Presence)
	view := b.TicketView(r, state, artifact, p.Presence)
	if p.Form != (templates.ClaimForm{}) {
		view.Form = p.Form
	}
	eventsURL := routepath.EventsWithQuery(r.URL.RawQuery)
	if r.Method != http.MethodGet {
		eventsURL = routepath.Events
	}
	if err := pagerender.WritePage(w, r, pagerender.Page{
		Head:       b.Head(r, loc, lang, p.Controller.Theme(), state),
		StatusCode: p.StatusCode,
		Fragment:   templates.TicketFragment(view, loc),
		Body:       templates.LaunchWeekMain(view, eventsURL, loc),
	}); err != nil {
		b.WriteError(w, r, err)
	}
}
