// Package sqlite provides a SQLite-backed participant directory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/launchweek/internal/platform/id"
	sqlitemigrate "github.com/louisbranch/launchweek/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists launch week tickets in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite directory and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const ticketColumns = `t.id, t.user_id, t.username, t.name, t.ticket_number, t.golden,
       t.background_variant, t.referred_by, t.created_at,
       (SELECT COUNT(*) FROM tickets r WHERE r.referred_by = t.username) AS referral_count`

// ListParticipants returns up to limit participants, newest first.
func (s *Store) ListParticipants(ctx context.Context, limit int) ([]storage.ParticipantRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT username, ticket_number
		   FROM tickets
		  ORDER BY created_at DESC, ticket_number DESC
		  LIMIT ?`,
		storage.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var refs []storage.ParticipantRef
	for rows.Next() {
		var ref storage.ParticipantRef
		if err := rows.Scan(&ref.Username, &ref.Number); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return refs, nil
}

// GetTicketByUserID returns the ticket claimed by userID.
func (s *Store) GetTicketByUserID(ctx context.Context, userID string) (storage.Ticket, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.Ticket{}, fmt.Errorf("user id is required")
	}
	return s.getTicket(ctx, "t.user_id = ?", userID)
}

// GetTicketByUsername returns the ticket claimed for username.
func (s *Store) GetTicketByUsername(ctx context.Context, username string) (storage.Ticket, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return storage.Ticket{}, fmt.Errorf("username is required")
	}
	return s.getTicket(ctx, "t.username = ?", username)
}

func (s *Store) getTicket(ctx context.Context, where string, arg any) (storage.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return storage.Ticket{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Ticket{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets t WHERE `+where, arg)

	var (
		ticket    storage.Ticket
		golden    int
		variant   sql.NullInt64
		createdAt int64
	)
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Username,
		&ticket.Name,
		&ticket.Number,
		&golden,
		&variant,
		&ticket.ReferredBy,
		&createdAt,
		&ticket.ReferralCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Ticket{}, storage.ErrNotFound
		}
		return storage.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	ticket.Golden = golden != 0
	if variant.Valid {
		value := int(variant.Int64)
		ticket.BackgroundVariant = &value
	}
	ticket.CreatedAt = fromMillis(createdAt)
	return ticket, nil
}

// ClaimTicket assigns the next ticket number to a new participant. The
// number is computed inside the insert so concurrent claims serialize on
// the write lock.
func (s *Store) ClaimTicket(ctx context.Context, input storage.ClaimInput) (storage.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return storage.Ticket{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Ticket{}, fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(input.UserID)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if userID == "" {
		return storage.Ticket{}, fmt.Errorf("user id is required")
	}
	if username == "" {
		return storage.Ticket{}, fmt.Errorf("username is required")
	}
	referredBy := strings.ToLower(strings.TrimSpace(input.ReferredBy))
	if referredBy == username {
		referredBy = ""
	}
	createdAt := input.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	ticketID, err := id.NewID()
	if err != nil {
		return storage.Ticket{}, err
	}
	var variant sql.NullInt64
	if input.BackgroundVariant != nil {
		variant = sql.NullInt64{Int64: int64(*input.BackgroundVariant), Valid: true}
	}
	golden := 0
	if input.Golden {
		golden = 1
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO tickets (
		   id, user_id, username, name, ticket_number,
		   golden, background_variant, referred_by, created_at
		 )
		 SELECT ?, ?, ?, ?, COALESCE(MAX(ticket_number), 0) + 1, ?, ?, ?, ?
		   FROM tickets`,
		ticketID,
		userID,
		username,
		strings.TrimSpace(input.Name),
		golden,
		variant,
		referredBy,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.Ticket{}, storage.ErrAlreadyExists
		}
		return storage.Ticket{}, fmt.Errorf("claim ticket: %w", err)
	}
	return s.getTicket(ctx, "t.id = ?", ticketID)
}

// CountReferrals returns how many tickets name username as referrer.
func (s *Store) CountReferrals(ctx context.Context, username string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return 0, nil
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE referred_by = ?`, username,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count referrals: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Directory = (*Store)(nil)
