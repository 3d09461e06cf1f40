package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ratewise/ratewise/internal/estimate"
	"github.com/ratewise/ratewise/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the estimation HTTP service",
		Long: `Serve POST /v1/estimate (and the /functions/v1/ai-estimate alias)
until interrupted, then shut down gracefully.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := initLLMClient(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeClient(client)

	logger := slog.Default()
	engine := estimate.NewEngine(store, client, logger, cfg.EngineOptions())
	srv := server.New(engine, logger, server.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	slog.Info("Starting ratewise",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Driver,
		"provider", client.Name())

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
