// Package static embeds the launch week stylesheet.
package static

import "embed"

// FS exposes launch week static assets for HTTP serving.
//
//go:embed *.css
var FS embed.FS
