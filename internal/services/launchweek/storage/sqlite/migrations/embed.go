package migrations

import "embed"

// FS contains embedded SQLite migrations for the participant directory.
//
//go:embed *.sql
var FS embed.FS
