package claim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/launchweek/internal/services/launchweek/platform/errors"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/modulehandler"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/sessioncookie"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"github.com/louisbranch/launchweek/internal/services/launchweek/templates"
	"go.uber.org/zap"
)

const (
	keyInvalidUsername = "error.claim.invalid_username"
	keyInvalidName     = "error.claim.invalid_name"
	keyAlreadyClaimed  = "error.claim.already_claimed"
)

type handlers struct {
	modulehandler.Base
}

type claimForm struct {
	name     string
	username string
}

// handleClaim records the ticket, then re-renders the page through the
// controller's interactive transition with the submitted fields.
func (h handlers) handleClaim(w http.ResponseWriter, r *http.Request) {
	deps := h.Deps()
	if deps.Directory == nil {
		h.WriteError(w, r, apperrors.E(apperrors.KindUnavailable, "participant directory is not configured"))
		return
	}
	current, ok := h.session(r)
	if !ok {
		h.WriteError(w, r, apperrors.E(apperrors.KindUnauthorized, "session required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, r, apperrors.Wrap(apperrors.KindInvalidInput, "parse claim form", err))
		return
	}
	form := claimForm{
		name:     r.PostForm.Get("name"),
		username: r.PostForm.Get("username"),
	}

	device := h.Device(w, r)
	ctrl := h.NewController(r, device, profile.Query{})
	defer ctrl.Unmount()
	if err := ctrl.Mount(r.Context()); err != nil {
		h.WriteError(w, r, err)
		return
	}

	ticket, err := h.claim(r.Context(), r, current, form)
	if err != nil {
		key := apperrors.LocalizationKey(err)
		if key == "" {
			h.WriteError(w, r, err)
			return
		}
		loc, _ := h.PageLocalizer(w, r)
		status := http.StatusUnprocessableEntity
		if httpx.IsHTMXRequest(r) {
			status = http.StatusOK
		}
		h.WriteTicketPage(w, r, modulehandler.TicketPage{
			Controller: ctrl,
			Presence:   h.FetchPresence(r.Context()),
			StatusCode: status,
			Form: templates.ClaimForm{
				Name:     form.name,
				Username: form.username,
				Error:    templates.T(loc, key),
			},
		})
		return
	}
	sessioncookie.ClearReferral(w, r, deps.SchemePolicy)

	submitted := profile.Query{TicketNumber: &ticket.Number}
	if username, ok := profile.NormalizeUsername(ticket.Username); ok {
		submitted.Username = &username
	}
	if name, ok := profile.NormalizeName(ticket.Name); ok {
		submitted.Name = &name
	}
	if _, err := ctrl.Interact(submitted); err != nil {
		h.WriteError(w, r, err)
		return
	}
	if deps.Hub != nil && device != "" {
		deps.Hub.Publish(device, session.Event{Kind: session.EventRefreshed, Session: current})
	}
	h.WriteTicketPage(w, r, modulehandler.TicketPage{
		Controller: ctrl,
		Presence:   h.FetchPresence(r.Context()),
	})
}

func (h handlers) session(r *http.Request) (session.Session, bool) {
	if resolve := h.Deps().ResolveSession; resolve != nil {
		return resolve(r)
	}
	return session.Session{}, false
}

// claim validates the form and writes the ticket. Claiming again returns
// the participant's existing ticket.
func (h handlers) claim(ctx context.Context, r *http.Request, current session.Session, form claimForm) (storage.Ticket, error) {
	deps := h.Deps()
	username, ok := profile.NormalizeUsername(form.username)
	if !ok {
		return storage.Ticket{}, apperrors.EK(apperrors.KindInvalidInput, keyInvalidUsername, "invalid username")
	}
	name := username
	if strings.TrimSpace(form.name) != "" {
		normalized, ok := profile.NormalizeName(form.name)
		if !ok {
			return storage.Ticket{}, apperrors.EK(apperrors.KindInvalidInput, keyInvalidName, "invalid name")
		}
		name = normalized
	}
	referredBy := ""
	if raw, ok := sessioncookie.ReadReferral(r); ok {
		if referrer, ok := profile.NormalizeUsername(raw); ok && referrer != username {
			referredBy = referrer
		}
	}

	ticket, err := deps.Directory.ClaimTicket(ctx, storage.ClaimInput{
		UserID:     current.UserID,
		Username:   username,
		Name:       name,
		ReferredBy: referredBy,
		CreatedAt:  deps.NowOrDefault().UTC(),
	})
	if err == nil {
		h.Logger().Info("ticket claimed",
			zap.String("user_id", current.UserID),
			zap.String("username", ticket.Username),
			zap.Int("number", ticket.Number),
		)
		return ticket, nil
	}
	if !errors.Is(err, storage.ErrAlreadyExists) {
		return storage.Ticket{}, fmt.Errorf("claim ticket: %w", err)
	}
	existing, lookupErr := deps.Directory.GetTicketByUserID(ctx, current.UserID)
	if lookupErr == nil {
		return existing, nil
	}
	if !errors.Is(lookupErr, storage.ErrNotFound) {
		return storage.Ticket{}, fmt.Errorf("load existing ticket: %w", lookupErr)
	}
	return storage.Ticket{}, apperrors.EK(apperrors.KindConflict, keyAlreadyClaimed, "username already claimed")
}
