// Package postgres provides a Postgres-backed participant directory for
// hosted deployments.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/louisbranch/launchweek/internal/platform/id"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/postgres/migrations"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

// Store persists launch week tickets in Postgres.
type Store struct {
	sqlDB *sql.DB
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open connects to dsn through the pgx stdlib driver and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return New(sqlDB), nil
}

// New wraps an already migrated database handle.
func New(sqlDB *sql.DB) *Store {
	return &Store{sqlDB: sqlDB}
}

// Close closes the database handle.
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
		  LIMIT $1`,
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
	return s.getTicket(ctx, "t.user_id = $1", userID)
}

// GetTicketByUsername returns the ticket claimed for username.
func (s *Store) GetTicketByUsername(ctx context.Context, username string) (storage.Ticket, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return storage.Ticket{}, fmt.Errorf("username is required")
	}
	return s.getTicket(ctx, "t.username = $1", username)
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
		ticket  storage.Ticket
		variant sql.NullInt64
	)
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Username,
		&ticket.Name,
		&ticket.Number,
		&ticket.Golden,
		&variant,
		&ticket.ReferredBy,
		&ticket.CreatedAt,
		&ticket.ReferralCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Ticket{}, storage.ErrNotFound
		}
		return storage.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	if variant.Valid {
		value := int(variant.Int64)
		ticket.BackgroundVariant = &value
	}
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	return ticket, nil
}

// ClaimTicket assigns the next ticket number from ticket_number_seq.
// Numbers burned by rejected claims leave gaps; uniqueness is what matters.
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

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO tickets (
		   id, user_id, username, name, ticket_number,
		   golden, background_variant, referred_by, created_at
		 ) VALUES ($1, $2, $3, $4, nextval('ticket_number_seq'), $5, $6, $7, $8)`,
		ticketID,
		userID,
		username,
		strings.TrimSpace(input.Name),
		input.Golden,
		variant,
		referredBy,
		createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.Ticket{}, storage.ErrAlreadyExists
		}
		return storage.Ticket{}, fmt.Errorf("claim ticket: %w", err)
	}
	return s.getTicket(ctx, "t.id = $1", ticketID)
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
		`SELECT COUNT(*) FROM tickets WHERE referred_by = $1`, username,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count referrals: %w", err)
	}
	return count, nil
}

var _ storage.Directory = (*Store)(nil)
