// Package driver opens the configured participant directory backend.
package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/postgres"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage/sqlite"
)

// Supported directory drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Open opens and migrates the directory named by driver.
func Open(ctx context.Context, driver, dsn string) (storage.Directory, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", SQLite:
		store, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite directory: %w", err)
		}
		return store, nil
	case Postgres, "pgx":
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres directory: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported directory driver %q", driver)
	}
}
