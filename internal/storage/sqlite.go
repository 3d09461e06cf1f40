package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage is a local historical store backed by SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

var (
	_ service.HistoryStore  = (*SQLiteStorage)(nil)
	_ service.HistoryWriter = (*SQLiteStorage)(nil)
)

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections, and :memory:
	// databases are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// FindSimilar returns records with the same unit (and trade, when given)
// whose item name contains every token in order, newest first.
func (s *SQLiteStorage) FindSimilar(ctx context.Context, q service.HistoryQuery) ([]model.HistoricalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	query, args := buildFindSimilar(DefaultTable, "LIKE", questionMark, false, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	return collectRecords(rows)
}

// SaveRecord inserts a priced record. A missing ID or timestamp is filled in.
func (s *SQLiteStorage) SaveRecord(ctx context.Context, rec *model.HistoricalRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO estimates (id, item_name, unit, trade_id, final_rate, ai_rate, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		strings.TrimSpace(rec.ItemName),
		rec.Unit,
		nullString(rec.TradeID),
		nullFloat(rec.FinalRate),
		nullFloat(rec.AIRate),
		nullString(rec.Currency),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
