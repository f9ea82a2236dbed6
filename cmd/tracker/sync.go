package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/reconcile"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Route staged log records to monthly and stock tables",
		Long: `Scan the staging log for unsynced financial records and file them into
their monthly transaction partitions and the stock holding table. Safe to
run repeatedly; already-synced records are never touched again.`,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	logTable, err := store.GetOrCreate(ctx, model.LogTableName, model.LogHeaders)
	if err != nil {
		return err
	}

	synced, err := reconcile.New(store, logTable).Sync(ctx)
	if err != nil {
		return err
	}

	slog.Info("Sync finished", "synced", synced)
	cmd.Printf("Synced %d record(s)\n", synced)
	return nil
}
