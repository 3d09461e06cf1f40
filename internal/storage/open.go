package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ratewise/ratewise/internal/service"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a history store backend.
type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	Table       string
}

// Open returns the configured history store. SQLite stores are migrated
// before being returned so a fresh database is immediately queryable.
func Open(ctx context.Context, opts Options) (service.HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		store, err := NewSQLiteStorage(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return store, nil
	case DriverPostgres, "postgresql", "pgx":
		return NewPostgresStorage(ctx, opts.PostgresDSN, opts.Table)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}
