package estimate

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ratewise/ratewise/internal/common"
	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

// minFetch is the smallest number of rows fetched for the baseline population.
const minFetch = 20

var errRequiredFields = errors.New("item_name and unit are required")

// Context is the historical context retrieved for one request.
type Context struct {
	// Population is every fetched record; the baseline is computed over it.
	Population []model.HistoricalRecord
	// Top is the most recent slice of Population shown to the model.
	Top []model.HistoricalRecord
}

// Retriever finds historically similar priced items.
type Retriever struct {
	store service.HistoryStore
}

// NewRetriever creates a retriever reading from store.
func NewRetriever(store service.HistoryStore) *Retriever {
	return &Retriever{store: store}
}

// FetchLimit is the number of rows fetched for a context of size limit.
func FetchLimit(limit int) int {
	return max(2*limit, minFetch)
}

// NameTokens returns the leading whitespace-separated tokens of an item name.
func NameTokens(itemName string) []string {
	tokens := strings.Fields(itemName)
	if len(tokens) > service.MaxNameTokens {
		tokens = tokens[:service.MaxNameTokens]
	}
	return tokens
}

// Retrieve queries the store for records with the same unit (and trade,
// when given) whose name overlaps itemName. Store failures fail the call;
// there is no empty fallback.
func (r *Retriever) Retrieve(ctx context.Context, itemName, unit, tradeID string, limit int) (Context, error) {
	itemName = strings.TrimSpace(itemName)
	unit = strings.TrimSpace(unit)
	if itemName == "" || unit == "" {
		return Context{}, common.NewError(common.ErrValidation, "retrieve", errRequiredFields)
	}
	if limit < 1 {
		return Context{}, common.NewError(common.ErrValidation, "retrieve", errors.New("context size must be at least 1"))
	}

	fetch := FetchLimit(limit)
	records, err := r.store.FindSimilar(ctx, service.HistoryQuery{
		Unit:    unit,
		TradeID: strings.TrimSpace(tradeID),
		Tokens:  NameTokens(itemName),
		Limit:   fetch,
	})
	if err != nil {
		return Context{}, common.NewError(common.ErrDataAccess, "retrieve", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > fetch {
		records = records[:fetch]
	}

	top := records[:min(limit, len(records))]
	return Context{
		Population: records,
		Top:        append(make([]model.HistoricalRecord, 0, len(top)), top...),
	}, nil
}
