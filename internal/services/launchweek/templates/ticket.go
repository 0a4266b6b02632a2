package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/launchweek/internal/services/launchweek/render"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
)

// Ticket view states.
const (
	StateLoading = "loading"
	StateForm    = "form"
	StateTicket  = "ticket"
)

// TicketFragmentID is the element swapped by HTMX and SSE updates.
const TicketFragmentID = "lw-ticket"

// maxPresenceShown caps the participants drawn in the presence strip.
const maxPresenceShown = 24

// ClaimForm holds the claim form values and its error message.
type ClaimForm struct {
	Name     string
	Username string
	Error    string
}

// TicketView is the data behind the ticket fragment.
type TicketView struct {
	State    string
	Artifact render.Artifact
	Presence []storage.ParticipantRef
	ShareURL string
	ClaimURL string
	Form     ClaimForm
}

// LaunchWeekMain renders the page body: hero, live ticket and presence.
func LaunchWeekMain(view TicketView, eventsURL string, loc Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<main class="lw-main"><header class="lw-hero">`)
		h.printf(`<h1>%s</h1><p>%s</p></header>`, T(loc, "launchweek.title"), T(loc, "launchweek.tagline"))
		h.printf(`<div class="lw-live" hx-ext="sse" sse-connect="%s">`, safeURL(eventsURL))
		h.render(ctx, TicketFragment(view, loc))
		h.raw(`</div>`)
		h.render(ctx, PresenceStrip(view, loc))
		h.raw(`</main>`)
		return h.err
	})
}

// TicketFragment renders the swappable ticket section for the view state.
func TicketFragment(view TicketView, loc Localizer) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		state := view.State
		if state == "" {
			state = StateLoading
		}
		h.printf(`<section id="%s" class="lw-ticket" data-state="%s" sse-swap="ticket" hx-swap="outerHTML">`, TicketFragmentID, state)
		switch state {
		case StateLoading:
			h.printf(`<p class="lw-loading" aria-busy="true">%s</p>`, T(loc, "launchweek.loading"))
		case StateForm:
			h.printf(`<h2>%s</h2>`, T(loc, "launchweek.form.heading"))
			writeArtifact(h, view.Artifact, loc)
			writeClaimForm(h, view, loc)
		default:
			h.printf(`<h2>%s</h2>`, T(loc, "launchweek.ticket.heading"))
			writeArtifact(h, view.Artifact, loc)
			if view.ShareURL != "" {
				h.printf(`<label class="lw-share">%s <input type="url" readonly value="%s"></label>`, T(loc, "launchweek.ticket.share"), view.ShareURL)
			}
		}
		h.raw(`</section>`)
		return h.err
	})
}

func writeArtifact(h *htmlWriter, artifact render.Artifact, loc Localizer) {
	class := "lw-card"
	if artifact.Golden() {
		class += " lw-card--golden"
	}
	if artifact.Placeholder {
		class += " lw-card--placeholder"
	}
	h.printf(`<figure class="%s" data-variant="%d">`, class, artifact.Variant)
	// SVG text is escaped by the renderer.
	h.raw(string(artifact.SVG))
	h.raw(`<figcaption>`)
	if artifact.Golden() {
		h.printf(`<span class="lw-badge">%s</span>`, T(loc, "launchweek.ticket.golden"))
	}
	h.printf(`<span class="lw-label">%s</span>`, artifact.TicketLabel)
	if artifact.ReferralCount > 0 {
		h.printf(`<span class="lw-referrals">%s</span>`, T(loc, "launchweek.ticket.referrals", artifact.ReferralCount))
	}
	h.raw(`</figcaption></figure>`)
}

func writeClaimForm(h *htmlWriter, view TicketView, loc Localizer) {
	if view.Form.Error != "" {
		h.printf(`<p class="lw-error" role="alert">%s</p>`, view.Form.Error)
	}
	h.printf(`<form class="lw-form" method="post" action="%s" hx-post="%s" hx-target="#%s" hx-swap="outerHTML">`,
		safeURL(view.ClaimURL), safeURL(view.ClaimURL), TicketFragmentID)
	h.printf(`<label>%s <input name="name" maxlength="64" autocomplete="name" value="%s"></label>`, T(loc, "launchweek.form.name"), view.Form.Name)
	h.printf(`<label>%s <input name="username" maxlength="40" autocomplete="username" required value="%s"></label>`, T(loc, "launchweek.form.username"), view.Form.Username)
	h.printf(`<button type="submit">%s</button></form>`, T(loc, "launchweek.form.submit"))
}

// PresenceStrip renders the ambient participant decoration.
func PresenceStrip(view TicketView, loc Localizer) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<aside class="lw-presence" aria-hidden="true">`)
		total := len(view.Presence)
		if total == 0 {
			h.printf(`<p>%s</p></aside>`, T(loc, "launchweek.presence.empty"))
			return h.err
		}
		h.printf(`<p>%s</p><ul>`, T(loc, "launchweek.presence.count", total))
		for i, ref := range view.Presence {
			if i == maxPresenceShown {
				break
			}
			h.printf(`<li data-ticket="%d">@%s</li>`, ref.Number, ref.Username)
		}
		h.raw(`</ul></aside>`)
		return h.err
	})
}
