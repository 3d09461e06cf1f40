// Package model defines the request, context and result types of a rate estimation.
package model

import "time"

// Request defaults applied when the caller leaves a field empty.
const (
	DefaultCurrency    = "EGP"
	DefaultContextSize = 12
	DefaultDecayMonths = 12
)

// EstimateRequest is the input to a single rate estimation.
type EstimateRequest struct {
	Quantity    *float64 `json:"quantity,omitempty"`
	ItemName    string   `json:"item_name"`
	Unit        string   `json:"unit"`
	TradeID     string   `json:"trade_id,omitempty"`
	Currency    string   `json:"currency"`
	Location    string   `json:"location,omitempty"`
	Specs       string   `json:"specs,omitempty"`
	ContextSize int      `json:"k"`
	DecayMonths int      `json:"decay_months"`
}

// BreakdownLine is one cost component contributing to a unit rate.
// Every line that survives normalization has a finite, non-negative Total.
type BreakdownLine struct {
	Category  string  `json:"category"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Qty       float64 `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// EstimateResult is the reconciled output of one estimation. It is built
// once per request and never mutated afterwards.
type EstimateResult struct {
	GeneratedAt   time.Time          `json:"generated_at"`
	Baseline      *float64           `json:"baseline"`
	Currency      string             `json:"currency"`
	Rationale     string             `json:"rationale"`
	Breakdown     []BreakdownLine    `json:"breakdown"`
	TopContext    []HistoricalRecord `json:"top_context"`
	Inputs        EstimateRequest    `json:"inputs"`
	UnitRate      float64            `json:"unit_rate"`
	Confidence    float64            `json:"confidence"`
	ContextSize   int                `json:"context_size"`
	ContextWindow int                `json:"context_window"`
}
