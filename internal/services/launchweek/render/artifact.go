// Package render composes resolved profiles into shareable ticket artifacts.
package render

import (
	"errors"
)

// ErrRenderFailure reports that composition failed and a placeholder was used.
var ErrRenderFailure = errors.New("ticket render failure")

// VariantCount is the number of background variants per theme.
const VariantCount = 8

// Placeholder copy shown for missing profile fields.
const (
	PlaceholderName     = "Your Name"
	PlaceholderUsername = "username"
	PlaceholderTicket   = "#-----"
)

// Theme selects the visual treatment of a ticket.
type Theme string

const (
	ThemeStandard Theme = "standard"
	ThemeGolden   Theme = "golden"
)

// Palette is the colour set of one background variant.
type Palette struct {
	Name       string `yaml:"name"`
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
	Accent     string `yaml:"accent"`
	Glow       string `yaml:"glow"`
}

// fallbackPalette renders placeholders without the catalog.
var fallbackPalette = Palette{
	Name:       "fallback",
	Background: "#111111",
	Foreground: "#ededed",
	Accent:     "#3ecf8e",
	Glow:       "#222222",
}

// Artifact is a rendered ticket.
type Artifact struct {
	Theme         Theme
	Variant       int
	Palette       Palette
	Name          string
	Username      string
	TicketLabel   string
	ReferralCount int
	PresenceCount int
	// Lines are the display lines in order: name, handle, ticket label.
	Lines []string
	// Placeholder is true when composition failed and SVG is the fallback.
	Placeholder bool
	SVG         []byte
}

// Golden reports whether the artifact uses the golden theme.
func (a Artifact) Golden() bool {
	return a.Theme == ThemeGolden
}
