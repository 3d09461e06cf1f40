package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ratewise/ratewise/internal/common"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// NewClient creates an LLM client based on the provided configuration.
// When cfg.RateLimit is positive the client is wrapped in a rate limiter.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		client, err = newOpenAIClient(cfg)
	case ProviderAnthropic:
		client, err = newAnthropicClient(cfg)
	case ProviderGemini:
		client, err = newGeminiClient(ctx, cfg)
	default:
		return nil, common.NewError(common.ErrUpstreamConfig, "llm", fmt.Errorf("unsupported LLM provider: %s", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		client = WithRateLimit(client, cfg.RateLimit)
	}
	return client, nil
}

// unavailableClient stands in for a provider that could not be configured.
type unavailableClient struct {
	err error
}

// Unavailable returns a Client whose calls always fail with err.
func Unavailable(err error) Client {
	return &unavailableClient{err: err}
}

func (c *unavailableClient) Complete(context.Context, CompletionRequest) (string, error) {
	return "", c.err
}

func (c *unavailableClient) Name() string { return "unavailable" }
