package directoryfakes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
)

// Directory is an in-memory storage.Directory.
type Directory struct {
	mu      sync.Mutex
	tickets []storage.Ticket

	// ListErr, GetErr and ClaimErr force failures for the matching calls.
	ListErr  error
	GetErr   error
	ClaimErr error

	ListCalls int
}

// New returns a Directory seeded with tickets.
func New(tickets ...storage.Ticket) *Directory {
	d := &Directory{}
	for _, ticket := range tickets {
		if ticket.ID == "" {
			ticket.ID = fmt.Sprintf("ticket-%d", ticket.Number)
		}
		d.tickets = append(d.tickets, ticket)
	}
	return d
}

// ListParticipants returns participants newest first.
func (d *Directory) ListParticipants(ctx context.Context, limit int) ([]storage.ParticipantRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ListCalls++
	if d.ListErr != nil {
		return nil, d.ListErr
	}
	limit = storage.NormalizeLimit(limit)
	refs := make([]storage.ParticipantRef, 0, len(d.tickets))
	for i := len(d.tickets) - 1; i >= 0 && len(refs) < limit; i-- {
		refs = append(refs, storage.ParticipantRef{Username: d.tickets[i].Username, Number: d.tickets[i].Number})
	}
	return refs, nil
}

// GetTicketByUserID returns the ticket owned by userID.
func (d *Directory) GetTicketByUserID(ctx context.Context, userID string) (storage.Ticket, error) {
	return d.find(ctx, func(t storage.Ticket) bool { return t.UserID == userID })
}

// GetTicketByUsername returns the ticket claimed for username.
func (d *Directory) GetTicketByUsername(ctx context.Context, username string) (storage.Ticket, error) {
	return d.find(ctx, func(t storage.Ticket) bool { return t.Username == username })
}

func (d *Directory) find(ctx context.Context, match func(storage.Ticket) bool) (storage.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return storage.Ticket{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetErr != nil {
		return storage.Ticket{}, d.GetErr
	}
	for _, ticket := range d.tickets {
		if match(ticket) {
			ticket.ReferralCount = d.referralsLocked(ticket.Username)
			return ticket, nil
		}
	}
	return storage.Ticket{}, storage.ErrNotFound
}

// ClaimTicket appends a ticket numbered after the current maximum.
func (d *Directory) ClaimTicket(ctx context.Context, input storage.ClaimInput) (storage.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return storage.Ticket{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ClaimErr != nil {
		return storage.Ticket{}, d.ClaimErr
	}
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.Username) == "" {
		return storage.Ticket{}, fmt.Errorf("user id and username are required")
	}
	next := 1
	for _, ticket := range d.tickets {
		if ticket.UserID == input.UserID || ticket.Username == input.Username {
			return storage.Ticket{}, storage.ErrAlreadyExists
		}
		if ticket.Number >= next {
			next = ticket.Number + 1
		}
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Unix(0, 0).UTC()
	}
	ticket := storage.Ticket{
		ID:                fmt.Sprintf("ticket-%d", next),
		UserID:            input.UserID,
		Username:          input.Username,
		Name:              input.Name,
		Number:            next,
		Golden:            input.Golden,
		BackgroundVariant: input.BackgroundVariant,
		ReferredBy:        input.ReferredBy,
		CreatedAt:         createdAt,
	}
	d.tickets = append(d.tickets, ticket)
	return ticket, nil
}

// CountReferrals counts tickets naming username as referrer.
func (d *Directory) CountReferrals(ctx context.Context, username string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.referralsLocked(username), nil
}

func (d *Directory) referralsLocked(username string) int {
	count := 0
	for _, ticket := range d.tickets {
		if ticket.ReferredBy != "" && ticket.ReferredBy == username {
			count++
		}
	}
	return count
}

// Tickets returns a copy of the stored tickets in claim order.
func (d *Directory) Tickets() []storage.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]storage.Ticket(nil), d.tickets...)
}

// Close is a no-op.
func (d *Directory) Close() error {
	return nil
}

var _ storage.Directory = (*Directory)(nil)
