package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewise/ratewise/internal/common"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		config   Config
		wantErr  bool
	}{
		{name: "default provider is openai", config: Config{APIKey: "k"}, wantName: "openai:gpt-4o-mini"},
		{name: "openai", config: Config{Provider: "OpenAI", APIKey: "k", Model: "gpt-4o"}, wantName: "openai:gpt-4o"},
		{name: "anthropic", config: Config{Provider: "anthropic", APIKey: "k"}, wantName: "anthropic:claude-3-5-haiku-latest"},
		{name: "gemini", config: Config{Provider: "gemini", APIKey: "k"}, wantName: "gemini:gemini-2.0-flash"},
		{name: "unsupported provider", config: Config{Provider: "mystery", APIKey: "k"}, wantErr: true},
		{name: "missing key", config: Config{Provider: "anthropic"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrUpstreamConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, client.Name())
		})
	}
}

func TestNewClient_RateLimited(t *testing.T) {
	client, err := NewClient(context.Background(), Config{APIKey: "k", RateLimit: 30})
	require.NoError(t, err)

	limited, ok := client.(*limitedClient)
	require.True(t, ok)
	assert.Equal(t, 30, limited.limiter.capacity)
	require.NoError(t, limited.Close())
}

func TestUnavailable(t *testing.T) {
	cause := common.NewError(common.ErrUpstreamConfig, "llm", errors.New("OpenAI API key is required"))
	client := Unavailable(cause)

	assert.Equal(t, "unavailable", client.Name())
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, common.ErrUpstreamConfig)
	assert.Same(t, cause, err)
}
