package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

// PostgresStorage reads historical estimates from the application's
// Postgres database. It never writes: records there are owned by the web app.
type PostgresStorage struct {
	db    *sql.DB
	table string
}

var _ service.HistoryStore = (*PostgresStorage)(nil)

// NewPostgresStorage opens a pgx-backed connection pool and verifies it.
func NewPostgresStorage(ctx context.Context, dsn, table string) (*PostgresStorage, error) {
	if err := validateString(dsn, "dsn"); err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if err := validateTable(table); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{db: db, table: table}, nil
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// FindSimilar runs the ILIKE token query against the estimates table.
func (s *PostgresStorage) FindSimilar(ctx context.Context, q service.HistoryQuery) ([]model.HistoricalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	query, args := buildFindSimilar(s.table, "ILIKE", dollar, true, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	return collectRecords(rows)
}
