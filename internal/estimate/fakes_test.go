package estimate

import (
	"context"
	"sync"
	"time"

	"github.com/ratewise/ratewise/internal/llm"
	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

// fakeStore is an in-memory HistoryStore that records every query.
type fakeStore struct {
	err     error
	records []model.HistoricalRecord
	queries []service.HistoryQuery
	mu      sync.Mutex
}

func (s *fakeStore) FindSimilar(_ context.Context, q service.HistoryQuery) ([]model.HistoricalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	out := append([]model.HistoricalRecord(nil), s.records...)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// fakeClient returns a canned completion and records every request.
type fakeClient struct {
	err      error
	response string
	requests []llm.CompletionRequest
	mu       sync.Mutex
}

func (c *fakeClient) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *fakeClient) Name() string { return "fake:test" }

func (c *fakeClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func ptr(f float64) *float64 { return &f }

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// recordsWithFinalRates builds records dated one day apart, newest first.
func recordsWithFinalRates(rates ...float64) []model.HistoricalRecord {
	records := make([]model.HistoricalRecord, len(rates))
	for i, r := range rates {
		records[i] = model.HistoricalRecord{
			ID:        "rec-" + string(rune('a'+i)),
			ItemName:  "Ceramic Floor Tiling",
			Unit:      "Sqm",
			FinalRate: ptr(r),
			Currency:  "EGP",
			CreatedAt: testNow.AddDate(0, 0, -(i + 1)),
		}
	}
	return records
}
