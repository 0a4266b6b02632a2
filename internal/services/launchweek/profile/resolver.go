package profile

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"go.uber.org/zap"
)

// Lookup loads the ticket claimed by a signed-in user.
type Lookup interface {
	GetTicketByUserID(ctx context.Context, userID string) (storage.Ticket, error)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Lookup Lookup
	// GoldenThreshold is the referral count that upgrades a ticket to golden.
	GoldenThreshold int
	// Timeout bounds one directory lookup. Zero means no extra bound.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Resolver combines page overrides with the signed-in user's ticket.
type Resolver struct {
	lookup          Lookup
	goldenThreshold int
	timeout         time.Duration
	logger          *zap.Logger
}

// NewResolver builds a Resolver. A nil Lookup yields no session defaults
// beyond the user id.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		lookup:          cfg.Lookup,
		goldenThreshold: cfg.GoldenThreshold,
		timeout:         cfg.Timeout,
		logger:          logger,
	}
}

// GoldenThreshold returns the configured referral threshold.
func (r *Resolver) GoldenThreshold() int {
	return r.goldenThreshold
}

// SessionProfile returns the defaults derived from the current session.
// Lookup failures degrade to the bare user id.
func (r *Resolver) SessionProfile(ctx context.Context, current session.Session, ok bool) Profile {
	if !ok || current.UserID == "" {
		return Profile{}
	}
	userID := current.UserID
	base := Profile{ID: &userID}
	if r.lookup == nil {
		return base
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ticket, err := r.lookup.GetTicketByUserID(ctx, userID)
	switch {
	case err == nil:
		return FromTicket(ticket, r.goldenThreshold)
	case errors.Is(err, storage.ErrNotFound):
		return base
	default:
		r.logger.Warn("ticket lookup degraded", zap.String("user_id", userID), zap.Error(err))
		return base
	}
}

// ResolveQuery resolves q against the session-derived defaults.
func (r *Resolver) ResolveQuery(ctx context.Context, q Query, current session.Session, ok bool) Profile {
	return Resolve(q, r.SessionProfile(ctx, current, ok))
}

// ResolveRequest parses values and resolves them against the session.
func (r *Resolver) ResolveRequest(ctx context.Context, values url.Values, current session.Session, ok bool) Profile {
	return r.ResolveQuery(ctx, ParseQuery(values), current, ok)
}
