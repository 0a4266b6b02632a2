// Package profile derives the display profile a ticket is rendered from.
package profile

import (
	"fmt"
	"strings"

	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
)

// Profile is the resolved display profile. Pointer fields are absent when nil.
type Profile struct {
	ID                *string
	TicketNumber      *int
	Name              *string
	Username          *string
	Golden            bool
	BackgroundVariant *int
	ReferralCount     int
}

// HasTicket reports whether the profile carries a ticket number.
func (p Profile) HasTicket() bool {
	return p.TicketNumber != nil
}

// DisplayName returns the name, falling back to the username, or "".
func (p Profile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	if p.Username != nil {
		return *p.Username
	}
	return ""
}

// Handle returns the username when it is non-empty.
func (p Profile) Handle() (string, bool) {
	if p.Username == nil || *p.Username == "" {
		return "", false
	}
	return *p.Username, true
}

// TicketLabel formats the ticket number as #00042, or "" when absent.
func (p Profile) TicketLabel() string {
	if p.TicketNumber == nil {
		return ""
	}
	return fmt.Sprintf("#%05d", *p.TicketNumber)
}

// Key returns a stable identity string for change detection.
func (p Profile) Key() string {
	var b strings.Builder
	writeOpt(&b, p.ID)
	b.WriteByte('|')
	if p.TicketNumber != nil {
		fmt.Fprintf(&b, "%d", *p.TicketNumber)
	}
	b.WriteByte('|')
	writeOpt(&b, p.Name)
	b.WriteByte('|')
	writeOpt(&b, p.Username)
	fmt.Fprintf(&b, "|%t|", p.Golden)
	if p.BackgroundVariant != nil {
		fmt.Fprintf(&b, "%d", *p.BackgroundVariant)
	}
	fmt.Fprintf(&b, "|%d", p.ReferralCount)
	return b.String()
}

func writeOpt(b *strings.Builder, value *string) {
	if value != nil {
		b.WriteString(*value)
	}
}

// FromTicket builds the session-derived profile for a claimed ticket.
// Tickets are golden when flagged or when referrals reach goldenThreshold;
// a non-positive threshold disables the referral rule.
func FromTicket(ticket storage.Ticket, goldenThreshold int) Profile {
	out := Profile{
		Golden:        ticket.Golden,
		ReferralCount: max(ticket.ReferralCount, 0),
	}
	if userID := strings.TrimSpace(ticket.UserID); userID != "" {
		out.ID = &userID
	}
	if ticket.Number > 0 {
		number := ticket.Number
		out.TicketNumber = &number
	}
	if name, ok := NormalizeName(ticket.Name); ok {
		out.Name = &name
	}
	if username, ok := NormalizeUsername(ticket.Username); ok {
		out.Username = &username
	}
	if ticket.BackgroundVariant != nil && *ticket.BackgroundVariant >= 0 {
		variant := *ticket.BackgroundVariant
		out.BackgroundVariant = &variant
	}
	if goldenThreshold > 0 && out.ReferralCount >= goldenThreshold {
		out.Golden = true
	}
	return out
}

// Resolve merges query overrides over session-derived values field by
// field. Query values always win so share links can preview any ticket.
func Resolve(query Query, fromSession Profile) Profile {
	out := Profile{
		ID:                pick(query.ID, fromSession.ID),
		TicketNumber:      pick(query.TicketNumber, fromSession.TicketNumber),
		Name:              pick(query.Name, fromSession.Name),
		Username:          pick(query.Username, fromSession.Username),
		Golden:            fromSession.Golden,
		BackgroundVariant: pick(query.BackgroundVariant, fromSession.BackgroundVariant),
		ReferralCount:     max(fromSession.ReferralCount, 0),
	}
	if query.Golden != nil {
		out.Golden = *query.Golden
	}
	return out
}

func pick[T any](override, fallback *T) *T {
	if override != nil {
		value := *override
		return &value
	}
	if fallback != nil {
		value := *fallback
		return &value
	}
	return nil
}
