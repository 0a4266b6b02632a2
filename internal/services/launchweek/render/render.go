package render

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	platformotel "github.com/louisbranch/launchweek/internal/platform/otel"
	"github.com/louisbranch/launchweek/internal/services/launchweek/presence"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Loader produces the Compositor on first use.
type Loader func() (Compositor, error)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLoader replaces the embedded compositor loader.
func WithLoader(load Loader) Option {
	return func(r *Renderer) {
		if load != nil {
			r.load = load
		}
	}
}

// WithLogger sets the logger used for render degradation warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer turns profiles into artifacts. The compositor is loaded once,
// on the first Render call, so startup never pays for it.
type Renderer struct {
	load   Loader
	logger *zap.Logger

	once    sync.Once
	comp    Compositor
	loadErr error
}

// New returns a Renderer backed by the embedded catalog unless overridden.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		load:   LoadEmbeddedCompositor,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render composes p into an artifact. It never fails: missing fields use
// placeholder copy and composition failures yield a placeholder artifact.
func (r *Renderer) Render(ctx context.Context, p profile.Profile, snap presence.Snapshot) Artifact {
	ctx, span := platformotel.Tracer().Start(ctx, "render.Render")
	defer span.End()

	spec := SpecFor(p, snap)
	span.SetAttributes(
		attribute.String("ticket.theme", string(spec.Theme)),
		attribute.Int("ticket.variant", spec.Variant),
	)

	artifact := Artifact{
		Theme:         spec.Theme,
		Variant:       spec.Variant,
		Name:          spec.Name,
		Username:      spec.Username,
		TicketLabel:   spec.TicketLabel,
		ReferralCount: spec.ReferralCount,
		PresenceCount: spec.PresenceCount,
		Lines:         []string{spec.Name, "@" + spec.Username, spec.TicketLabel},
	}

	palette, svg, err := r.compose(ctx, spec)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("ticket render degraded to placeholder", zap.Error(err))
		artifact.Placeholder = true
		artifact.Palette = fallbackPalette
		artifact.SVG = placeholderSVG(spec)
		return artifact
	}
	artifact.Palette = palette
	artifact.SVG = svg
	return artifact
}

func (r *Renderer) compositor() (Compositor, error) {
	r.once.Do(func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				r.loadErr = fmt.Errorf("load compositor panic: %v", recovered)
			}
		}()
		r.comp, r.loadErr = r.load()
		if r.loadErr == nil && r.comp == nil {
			r.loadErr = fmt.Errorf("loader returned no compositor")
		}
	})
	if r.loadErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, r.loadErr)
	}
	return r.comp, nil
}

func (r *Renderer) compose(ctx context.Context, spec Spec) (palette Palette, svg []byte, err error) {
	comp, err := r.compositor()
	if err != nil {
		return Palette{}, nil, err
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			palette, svg = Palette{}, nil
			err = fmt.Errorf("%w: compose panic: %v", ErrRenderFailure, recovered)
		}
	}()
	palette, svg, err = comp.Compose(ctx, spec)
	if err != nil {
		return Palette{}, nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	if len(svg) == 0 {
		return Palette{}, nil, fmt.Errorf("%w: empty document", ErrRenderFailure)
	}
	return palette, svg, nil
}

// SpecFor derives the composition inputs for p, filling placeholders.
func SpecFor(p profile.Profile, snap presence.Snapshot) Spec {
	spec := Spec{
		Theme:         ThemeStandard,
		Variant:       SelectVariant(p, VariantCount),
		Name:          PlaceholderName,
		Username:      PlaceholderUsername,
		TicketLabel:   PlaceholderTicket,
		ReferralCount: max(p.ReferralCount, 0),
		PresenceCount: snap.Len(),
	}
	if p.Golden {
		spec.Theme = ThemeGolden
	}
	if p.Name != nil && *p.Name != "" {
		spec.Name = *p.Name
	}
	if p.Username != nil && *p.Username != "" {
		spec.Username = *p.Username
	}
	if label := p.TicketLabel(); label != "" {
		spec.TicketLabel = label
	}
	return spec
}

// SelectVariant picks the background variant for p. An explicit variant is
// taken modulo count; otherwise the BLAKE3 hash of the id, ticket number or
// username decides, so the same participant always gets the same background.
func SelectVariant(p profile.Profile, count int) int {
	if count <= 0 {
		return 0
	}
	if p.BackgroundVariant != nil && *p.BackgroundVariant >= 0 {
		return *p.BackgroundVariant % count
	}
	var key string
	switch {
	case p.ID != nil && *p.ID != "":
		key = "id:" + *p.ID
	case p.TicketNumber != nil:
		key = "ticket:" + strconv.Itoa(*p.TicketNumber)
	case p.Username != nil && *p.Username != "":
		key = "username:" + *p.Username
	default:
		return 0
	}
	sum := blake3.Sum256([]byte(key))
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(count))
}
