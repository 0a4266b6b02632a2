package migrations

import "embed"

// FS contains embedded goose migrations for the Postgres participant directory.
//
//go:embed *.sql
var FS embed.FS
