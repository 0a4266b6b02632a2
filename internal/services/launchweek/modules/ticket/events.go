package ticket

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/launchweek/internal/services/launchweek/page"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/presence"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/templates"
	"go.uber.org/zap"
)

// TicketEvent is the server-sent event carrying a re-rendered fragment.
const TicketEvent = "ticket"

// handleEvents keeps one page controller alive for the connection and
// streams a fresh ticket fragment on every state change. Disconnecting
// unmounts the controller.
func (h handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	device, _ := sessioncookie.ReadDevice(r)
	ctrl := h.NewController(r, device, profile.ParseQuery(r.URL.Query()))
	defer ctrl.Unmount()

	ctx := r.Context()
	snap := h.FetchPresence(ctx)
	if err := ctrl.Mount(ctx); err != nil {
		h.WriteError(w, r, err)
		return
	}
	loc, _ := h.PageLocalizer(w, r)

	rc, err := httpx.StartEventStream(w)
	if err != nil {
		h.Logger().Warn("event stream unavailable", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case state, open := <-ctrl.Updates():
			if !open {
				return
			}
			if err := h.writeState(w, r, state, snap, loc); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h handlers) writeState(w io.Writer, r *http.Request, state page.State, snap presence.Snapshot, loc templates.Localizer) error {
	artifact := h.Render(r.Context(), state, snap)
	view := h.TicketView(r, state, artifact, snap)
	var buf bytes.Buffer
	if err := templates.TicketFragment(view, loc).Render(r.Context(), &buf); err != nil {
		h.Logger().Warn("render ticket event", zap.Error(err))
		return nil
	}
	return WriteEvent(w, TicketEvent, strconv.FormatUint(state.Generation, 10), buf.String())
}

// WriteEvent writes one server-sent event. Multi-line data is split into
// one data field per line.
func WriteEvent(w io.Writer, event, id, data string) error {
	var b strings.Builder
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
