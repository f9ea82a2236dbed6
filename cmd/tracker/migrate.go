package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/johnchik/llm-expense-tracker/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the SQLite schema to the latest version. Only
meaningful for the sqlite backend; the sheets backend has no schema to
migrate.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	backend := viper.GetString("storage.backend")
	if backend != "" && backend != "sqlite" {
		return fmt.Errorf("migrate only applies to the sqlite backend, got %q", backend)
	}

	dbPath := viper.GetString("storage.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/tracker/tracker.db"
	}
	dbPath = expandPath(dbPath)

	slog.Info("Starting database migration", "database", dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	cmd.Println("Database schema is up to date")
	return nil
}
