// Package presence gathers the ambient participant decoration shown around
// a ticket. Everything here is best effort: failures yield an empty snapshot.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	platformotel "github.com/louisbranch/launchweek/internal/platform/otel"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrFetchFailed reports that the participant directory could not be read.
var ErrFetchFailed = errors.New("presence fetch failed")

const (
	// DefaultLimit caps the participants in one snapshot.
	DefaultLimit = storage.DefaultListLimit
	// DefaultTimeout bounds one directory read.
	DefaultTimeout = 750 * time.Millisecond
)

// Snapshot is a read-only list of participants collected for one page load.
type Snapshot struct {
	participants []storage.ParticipantRef
	fetchedAt    time.Time
}

// NewSnapshot copies refs into a snapshot.
func NewSnapshot(refs []storage.ParticipantRef, fetchedAt time.Time) Snapshot {
	out := make([]storage.ParticipantRef, len(refs))
	copy(out, refs)
	return Snapshot{participants: out, fetchedAt: fetchedAt}
}

// Participants returns a copy of the snapshot contents.
func (s Snapshot) Participants() []storage.ParticipantRef {
	out := make([]storage.ParticipantRef, len(s.participants))
	copy(out, s.participants)
	return out
}

// Len returns the participant count.
func (s Snapshot) Len() int {
	return len(s.participants)
}

// FetchedAt returns when the directory was read; zero for empty fallbacks.
func (s Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Source lists participants from the directory.
type Source interface {
	ListParticipants(ctx context.Context, limit int) ([]storage.ParticipantRef, error)
}

// Config configures an Aggregator.
type Config struct {
	Source  Source
	Limit   int
	Timeout time.Duration
	Logger  *zap.Logger
	Now     func() time.Time
}

// Aggregator reads presence snapshots, sharing one in-flight read between
// concurrent page loads.
type Aggregator struct {
	source  Source
	limit   int
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
	group   singleflight.Group
}

// NewAggregator builds an Aggregator with defaults for zero config values.
func NewAggregator(cfg Config) *Aggregator {
	a := &Aggregator{
		source:  cfg.Source,
		limit:   cfg.Limit,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if a.limit <= 0 || a.limit > DefaultLimit {
		a.limit = DefaultLimit
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Fetch returns the current snapshot. It never fails: directory errors,
// timeouts and caller cancellation all yield an empty snapshot.
func (a *Aggregator) Fetch(ctx context.Context) Snapshot {
	if a == nil || a.source == nil {
		return Snapshot{}
	}
	ch := a.group.DoChan("participants", func() (any, error) {
		return a.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Snapshot{}
	case result := <-ch:
		if result.Err != nil {
			a.logger.Warn("presence degraded to empty", zap.Error(result.Err), zap.Bool("shared", result.Shared))
			return Snapshot{}
		}
		return result.Val.(Snapshot)
	}
}

func (a *Aggregator) load(ctx context.Context) (Snapshot, error) {
	ctx, span := platformotel.Tracer().Start(ctx, "presence.Fetch")
	defer span.End()
	span.SetAttributes(attribute.Int("presence.limit", a.limit))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	refs, err := a.source.ListParticipants(ctx, a.limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list participants")
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if len(refs) > a.limit {
		refs = refs[:a.limit]
	}
	span.SetAttributes(attribute.Int("presence.count", len(refs)))
	return NewSnapshot(refs, a.now()), nil
}
