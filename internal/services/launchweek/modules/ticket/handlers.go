package ticket

import (
	"errors"
	"net/http"
	"time"

	"github.com/louisbranch/launchweek/internal/platform/timeouts"
	"github.com/louisbranch/launchweek/internal/services/launchweek/page"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/modulehandler"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/presence"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReferralParam names the referring participant in share links.
const ReferralParam = "referral"

type handlers struct {
	modulehandler.Base
	heartbeat time.Duration
}

func newHandlers(base modulehandler.Base) handlers {
	heartbeat := base.Deps().Heartbeat
	if heartbeat <= 0 {
		heartbeat = timeouts.StreamHeartbeat
	}
	return handlers{Base: base, heartbeat: heartbeat}
}

// handlePage mounts a controller for the page view, fetches presence in
// parallel and renders the state the first session emission produced.
func (h handlers) handlePage(w http.ResponseWriter, r *http.Request) {
	h.rememberReferral(w, r)
	device := h.Device(w, r)
	ctrl := h.NewController(r, device, profile.ParseQuery(r.URL.Query()))
	defer ctrl.Unmount()

	var snap presence.Snapshot
	group, ctx := errgroup.WithContext(r.Context())
	group.Go(func() error {
		snap = h.FetchPresence(ctx)
		return nil
	})
	group.Go(func() error {
		return ctrl.Mount(ctx)
	})
	if err := group.Wait(); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteTicketPage(w, r, modulehandler.TicketPage{Controller: ctrl, Presence: snap})
}

// rememberReferral stores a valid ?referral= username for the claim flow.
func (h handlers) rememberReferral(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(ReferralParam)
	if raw == "" {
		return
	}
	username, ok := profile.NormalizeUsername(raw)
	if !ok {
		return
	}
	sessioncookie.WriteReferral(w, r, username, h.Deps().SchemePolicy)
}

// handleImage serves the ticket artifact for a claimed username. Unknown
// users still get a valid placeholder document with a 404.
func (h handlers) handleImage(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	var resolved profile.Profile

	username, ok := profile.NormalizeUsername(r.PathValue("username"))
	directory := h.Deps().Directory
	switch {
	case !ok || directory == nil:
		status = http.StatusNotFound
	default:
		ticket, err := directory.GetTicketByUsername(r.Context(), username)
		switch {
		case err == nil:
			threshold := 0
			if resolver := h.Deps().Resolver; resolver != nil {
				threshold = resolver.GoldenThreshold()
			}
			resolved = profile.FromTicket(ticket, threshold)
		case errors.Is(err, storage.ErrNotFound):
			status = http.StatusNotFound
		default:
			h.Logger().Warn("ticket image lookup failed", zap.String("username", username), zap.Error(err))
			status = http.StatusServiceUnavailable
		}
	}

	artifact := h.Render(r.Context(), page.State{Profile: resolved}, presence.Snapshot{})
	if status == http.StatusOK && !artifact.Placeholder {
		w.Header().Set("Cache-Control", "public, max-age=300")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	_ = httpx.WriteSVG(w, status, artifact.SVG)
}
