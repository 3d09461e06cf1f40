package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ratewise/ratewise/internal/common"
)

// maxResponseBytes bounds how much of a provider response body is read.
const maxResponseBytes = 4 << 20

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends one system message and one user message and returns
	// the raw text of the first completion.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name identifies the provider and model, e.g. "openai:gpt-4o-mini".
	Name() string
}

// CompletionRequest is a single chat-style completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider to constrain output to a JSON object when it can.
	JSON bool
}

// Config holds configuration for an LLM provider client.
type Config struct {
	HTTPClient  *http.Client
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   int
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap marks 429 responses as rate limited so callers can back off.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return common.ErrRateLimit
	}
	return nil
}

// ErrEmptyCompletion is returned when a provider answers 2xx with no text.
var ErrEmptyCompletion = errors.New("no completion content returned")

func missingKey(provider string) error {
	return common.NewError(common.ErrUpstreamConfig, "llm", fmt.Errorf("%s API key is required", provider))
}

func newHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// doJSON sends req and returns the body of a 2xx response.
func doJSON(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func pickTemperature(req CompletionRequest, fallback float64) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return fallback
}

func pickMaxTokens(req CompletionRequest, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
