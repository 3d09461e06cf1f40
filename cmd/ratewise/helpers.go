package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/ratewise/ratewise/internal/common"
	"github.com/ratewise/ratewise/internal/config"
	"github.com/ratewise/ratewise/internal/llm"
	"github.com/ratewise/ratewise/internal/service"
	"github.com/ratewise/ratewise/internal/storage"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// initStore opens the configured history store.
func initStore(ctx context.Context, cfg config.Config) (service.HistoryStore, error) {
	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

// initLLMClient builds the completion client. When the provider is not
// configured and allowUnavailable is set, a client that fails every call
// with the configuration error is returned instead.
func initLLMClient(ctx context.Context, cfg config.Config, allowUnavailable bool) (llm.Client, error) {
	client, err := llm.NewClient(ctx, cfg.ClientConfig())
	if err == nil {
		slog.Info("LLM client ready", "provider", client.Name())
		return client, nil
	}
	if allowUnavailable && errors.Is(err, common.ErrUpstreamConfig) {
		slog.Warn("LLM provider not configured; estimates will fail until it is",
			"provider", cfg.LLM.Provider,
			"key_env", config.ProviderKeyEnv(cfg.LLM.Provider),
			"error", err)
		return llm.Unavailable(err), nil
	}
	return nil, err
}

// closeClient stops any background work owned by client.
func closeClient(client llm.Client) {
	if closer, ok := client.(io.Closer); ok {
		_ = closer.Close()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
