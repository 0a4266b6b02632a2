// Package storage defines persistence contracts for the launch week
// participant directory.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested ticket is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates the user or username already holds a ticket.
	ErrAlreadyExists = errors.New("record already exists")
)

// DefaultListLimit caps participant listings when callers pass no limit.
const DefaultListLimit = 500

// Ticket is one claimed launch week registration.
type Ticket struct {
	ID                string
	UserID            string
	Username          string
	Name              string
	Number            int
	Golden            bool
	BackgroundVariant *int
	ReferredBy        string
	// ReferralCount is derived from tickets naming this username as referrer.
	ReferralCount int
	CreatedAt     time.Time
}

// ParticipantRef is the projection used for presence decoration.
type ParticipantRef struct {
	Username string
	Number   int
}

// ClaimInput carries the fields a participant submits when claiming.
type ClaimInput struct {
	UserID     string
	Username   string
	Name       string
	ReferredBy string
	// Golden and BackgroundVariant are set by operators and seed data only.
	Golden            bool
	BackgroundVariant *int
	CreatedAt         time.Time
}

// Directory is the participant directory backend.
type Directory interface {
	// ListParticipants returns up to limit participants, newest first.
	ListParticipants(ctx context.Context, limit int) ([]ParticipantRef, error)
	// GetTicketByUserID returns the ticket claimed by userID.
	GetTicketByUserID(ctx context.Context, userID string) (Ticket, error)
	// GetTicketByUsername returns the ticket claimed for username.
	GetTicketByUsername(ctx context.Context, username string) (Ticket, error)
	// ClaimTicket assigns the next ticket number to a new participant.
	ClaimTicket(ctx context.Context, input ClaimInput) (Ticket, error)
	// CountReferrals returns how many tickets name username as referrer.
	CountReferrals(ctx context.Context, username string) (int, error)
	Close() error
}

// NormalizeLimit applies DefaultListLimit to non-positive or oversized limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
