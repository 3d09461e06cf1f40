// Package estimate implements the rate estimation pipeline: historical
// retrieval, a median baseline, a structured model prompt, and
// reconciliation of the model's breakdown into a final unit rate.
package estimate

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ratewise/ratewise/internal/common"
	"github.com/ratewise/ratewise/internal/llm"
	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

// maxRawDetail bounds how much unparseable model output is echoed in errors.
const maxRawDetail = 500

// Options tunes the engine. Zero values fall back to the package defaults.
type Options struct {
	Now                func() time.Time
	DefaultCurrency    string
	Temperature        float64
	MaxTokens          int
	DefaultContextSize int
	DefaultDecayMonths int
	// MaxContextSize caps k; zero means uncapped.
	MaxContextSize int
}

// Engine runs one estimation per call. It holds no per-request state, so
// a single Engine serves concurrent requests.
type Engine struct {
	retriever *Retriever
	client    llm.Client
	logger    *slog.Logger
	opts      Options
}

// NewEngine wires the pipeline to its two collaborators.
func NewEngine(store service.HistoryStore, client llm.Client, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = model.DefaultCurrency
	}
	if opts.DefaultContextSize < 1 {
		opts.DefaultContextSize = model.DefaultContextSize
	}
	if opts.DefaultDecayMonths < 1 {
		opts.DefaultDecayMonths = model.DefaultDecayMonths
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.2
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1200
	}
	return &Engine{
		retriever: NewRetriever(store),
		client:    client,
		logger:    logger,
		opts:      opts,
	}
}

// Normalize trims the request and fills in defaults.
func (e *Engine) Normalize(req model.EstimateRequest) model.EstimateRequest {
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Unit = strings.TrimSpace(req.Unit)
	req.TradeID = strings.TrimSpace(req.TradeID)
	req.Location = strings.TrimSpace(req.Location)
	req.Specs = strings.TrimSpace(req.Specs)
	req.Currency = strings.TrimSpace(req.Currency)
	if req.Currency == "" {
		req.Currency = e.opts.DefaultCurrency
	}
	if req.ContextSize < 1 {
		req.ContextSize = e.opts.DefaultContextSize
	}
	if e.opts.MaxContextSize > 0 && req.ContextSize > e.opts.MaxContextSize {
		req.ContextSize = e.opts.MaxContextSize
	}
	if req.DecayMonths < 1 {
		req.DecayMonths = e.opts.DefaultDecayMonths
	}
	return req
}

// Estimate produces a reconciled unit rate for req. Missing item name or
// unit fails before any collaborator is called. Every failure is returned
// as a *common.EstimationError; no fabricated result is ever returned.
func (e *Engine) Estimate(ctx context.Context, req model.EstimateRequest) (*model.EstimateResult, error) {
	req = e.Normalize(req)
	if req.ItemName == "" || req.Unit == "" {
		return nil, common.NewError(common.ErrValidation, "estimate", errRequiredFields)
	}

	hist, err := e.retriever.Retrieve(ctx, req.ItemName, req.Unit, req.TradeID, req.ContextSize)
	if err != nil {
		return nil, err
	}

	baseline := ComputeBaseline(hist.Population)
	e.logger.DebugContext(ctx, "historical context retrieved",
		"item", req.ItemName,
		"unit", req.Unit,
		"population", len(hist.Population),
		"top", len(hist.Top),
		"baseline", baseline)

	raw, err := e.client.Complete(ctx, llm.CompletionRequest{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(req, hist.Top),
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		if common.Kind(err) != nil {
			return nil, err
		}
		return nil, common.NewErrorWithDetails(common.ErrCompletionTransport, "complete", err.Error(), err)
	}

	outcome := llm.ParseJSONObject(raw)
	if !outcome.OK() {
		return nil, common.NewErrorWithDetails(common.ErrResponseParse, "parse", truncate(outcome.Raw, maxRawDetail), outcome.Err)
	}

	result := e.assemble(req, hist, baseline, outcome.Object)
	e.logger.InfoContext(ctx, "estimate completed",
		"item", req.ItemName,
		"unit", req.Unit,
		"provider", e.client.Name(),
		"unit_rate", result.UnitRate,
		"baseline", baseline,
		"confidence", result.Confidence,
		"lines", len(result.Breakdown),
		"fenced", outcome.Fenced)
	return result, nil
}

// assemble normalizes the parsed model object and reconciles it into a result.
func (e *Engine) assemble(req model.EstimateRequest, hist Context, baseline *float64, parsed map[string]any) *model.EstimateResult {
	var modelRate *float64
	if f, ok := numeric(parsed["unit_rate"]); ok {
		modelRate = &f
	}

	confidence := defaultConfidence
	if f, ok := numeric(parsed["confidence"]); ok {
		confidence = f
	}

	rationale, ok := text(parsed["rationale"])
	if !ok {
		rationale = defaultRationale
	}

	currency, ok := text(parsed["currency"])
	if !ok {
		currency = req.Currency
	}

	breakdown := NormalizeBreakdown(parsed["breakdown"], req.Unit)
	unitRate, _ := Reconcile(modelRate, baseline, breakdown)

	return &model.EstimateResult{
		Inputs:        req,
		Baseline:      baseline,
		UnitRate:      unitRate,
		Currency:      currency,
		Confidence:    clamp01(confidence),
		Rationale:     rationale,
		Breakdown:     breakdown,
		ContextSize:   len(hist.Top),
		ContextWindow: req.DecayMonths,
		TopContext:    hist.Top,
		GeneratedAt:   e.opts.Now().UTC(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
