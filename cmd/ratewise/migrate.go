package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ratewise/ratewise/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the local SQLite history store to the latest schema.

The Postgres store is owned by the web application and is never migrated here.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != storage.DriverSQLite {
		return fmt.Errorf("migrate only applies to the sqlite store driver, not %q", cfg.Store.Driver)
	}

	store, err := storage.NewSQLiteStorage(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Fprintf(cmd.OutOrStdout(), "database: %s\ncurrent version: %d\nlatest version: %d\n",
			cfg.Store.SQLitePath, current, storage.ExpectedSchemaVersion)
		return nil
	}

	slog.Info("Running database migrations",
		"database", cfg.Store.SQLitePath,
		"from", current,
		"to", storage.ExpectedSchemaVersion)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Database migrations completed")
	return nil
}
