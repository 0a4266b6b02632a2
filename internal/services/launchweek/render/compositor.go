package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"regexp"

	"github.com/a-h/templ"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Spec is everything a Compositor needs to draw one ticket.
type Spec struct {
	Theme         Theme
	Variant       int
	Name          string
	Username      string
	TicketLabel   string
	ReferralCount int
	PresenceCount int
}

// Compositor draws the SVG document for a ticket.
type Compositor interface {
	Compose(ctx context.Context, spec Spec) (Palette, []byte, error)
}

// Catalog lists the palettes for each theme.
type Catalog struct {
	Standard []Palette `yaml:"standard"`
	Golden   []Palette `yaml:"golden"`
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	for theme, palettes := range map[Theme][]Palette{ThemeStandard: cat.Standard, ThemeGolden: cat.Golden} {
		if len(palettes) != VariantCount {
			return Catalog{}, fmt.Errorf("catalog %s: %d variants, want %d", theme, len(palettes), VariantCount)
		}
		for i, p := range palettes {
			for field, value := range map[string]string{
				"background": p.Background,
				"foreground": p.Foreground,
				"accent":     p.Accent,
				"glow":       p.Glow,
			} {
				if !hexColor.MatchString(value) {
					return Catalog{}, fmt.Errorf("catalog %s[%d] %s: invalid colour %q", theme, i, field, value)
				}
			}
		}
	}
	return cat, nil
}

// Palette returns the palette for theme and variant.
func (c Catalog) Palette(theme Theme, variant int) Palette {
	palettes := c.Standard
	if theme == ThemeGolden {
		palettes = c.Golden
	}
	if len(palettes) == 0 {
		return fallbackPalette
	}
	return palettes[((variant%len(palettes))+len(palettes))%len(palettes)]
}

// LoadEmbeddedCompositor decodes the embedded catalog into an SVGCompositor.
func LoadEmbeddedCompositor() (Compositor, error) {
	cat, err := ParseCatalog(embeddedCatalog)
	if err != nil {
		return nil, err
	}
	return NewSVGCompositor(cat), nil
}

// SVGCompositor draws open-graph sized SVG tickets from a catalog.
type SVGCompositor struct {
	catalog Catalog
}

// NewSVGCompositor returns a compositor over cat.
func NewSVGCompositor(cat Catalog) *SVGCompositor {
	return &SVGCompositor{catalog: cat}
}

// Compose draws spec.
func (c *SVGCompositor) Compose(ctx context.Context, spec Spec) (Palette, []byte, error) {
	if err := ctx.Err(); err != nil {
		return Palette{}, nil, err
	}
	palette := c.catalog.Palette(spec.Theme, spec.Variant)
	var buf bytes.Buffer
	writeTicketSVG(&buf, spec, palette, false)
	return palette, buf.Bytes(), nil
}

// placeholderSVG draws a minimal ticket without the catalog.
func placeholderSVG(spec Spec) []byte {
	var buf bytes.Buffer
	writeTicketSVG(&buf, spec, fallbackPalette, true)
	return buf.Bytes()
}

func writeTicketSVG(buf *bytes.Buffer, spec Spec, p Palette, minimal bool) {
	esc := templ.EscapeString[string]
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="630" viewBox="0 0 1200 630" role="img" aria-label="Launch Week ticket %s">`, esc(spec.TicketLabel))
	if minimal {
		fmt.Fprintf(buf, `<rect width="1200" height="630" fill="%s"/>`, p.Background)
	} else {
		fmt.Fprintf(buf, `<defs><radialGradient id="glow" cx="0.8" cy="0.1" r="1"><stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/></radialGradient></defs>`, p.Glow, p.Background)
		buf.WriteString(`<rect width="1200" height="630" fill="url(#glow)"/>`)
	}
	fmt.Fprintf(buf, `<rect x="60" y="60" width="1080" height="510" rx="32" fill="none" stroke="%s" stroke-width="4"/>`, p.Accent)
	fmt.Fprintf(buf, `<text x="120" y="180" fill="%s" font-family="ui-monospace, monospace" font-size="28" letter-spacing="6">LAUNCH WEEK</text>`, p.Accent)
	fmt.Fprintf(buf, `<text x="120" y="300" fill="%s" font-family="system-ui, sans-serif" font-size="72" font-weight="600">%s</text>`, p.Foreground, esc(spec.Name))
	fmt.Fprintf(buf, `<text x="120" y="370" fill="%s" font-family="ui-monospace, monospace" font-size="36">@%s</text>`, p.Accent, esc(spec.Username))
	fmt.Fprintf(buf, `<text x="1080" y="520" text-anchor="end" fill="%s" font-family="ui-monospace, monospace" font-size="56">%s</text>`, p.Foreground, esc(spec.TicketLabel))
	if !minimal {
		if spec.Theme == ThemeGolden {
			fmt.Fprintf(buf, `<text x="1080" y="180" text-anchor="end" fill="%s" font-family="ui-monospace, monospace" font-size="28" letter-spacing="4">GOLDEN TICKET</text>`, p.Accent)
		}
		if spec.ReferralCount > 0 {
			fmt.Fprintf(buf, `<text x="120" y="520" fill="%s" font-family="ui-monospace, monospace" font-size="24">%d referrals</text>`, p.Foreground, spec.ReferralCount)
		}
		if spec.PresenceCount > 0 {
			fmt.Fprintf(buf, `<text x="120" y="460" fill="%s" font-family="ui-monospace, monospace" font-size="22" opacity="0.7">+%d participants</text>`, p.Foreground, spec.PresenceCount)
		}
	}
	buf.WriteString(`</svg>`)
}
