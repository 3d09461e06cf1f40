// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ratewise/ratewise/internal/model"
)

// MaxNameTokens is the number of leading item-name tokens used for matching.
const MaxNameTokens = 6

// HistoryQuery selects past priced records similar to an item.
type HistoryQuery struct {
	Unit    string
	TradeID string
	// Tokens are matched in order, case-insensitively, anywhere in the item name.
	Tokens []string
	Limit  int
}

// HistoryStore is the read side of the historical-estimates store.
// Implementations return records most-recent-first.
type HistoryStore interface {
	FindSimilar(ctx context.Context, query HistoryQuery) ([]model.HistoricalRecord, error)
	Close() error
}

// HistoryWriter persists priced records. Only the local store implements it.
type HistoryWriter interface {
	SaveRecord(ctx context.Context, record *model.HistoricalRecord) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
