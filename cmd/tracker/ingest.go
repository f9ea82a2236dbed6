package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/johnchik/llm-expense-tracker/internal/model"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a JSON file of notifications",
		Long: `Process a file containing {"notifications": [...]} through the intake
pipeline, exactly as the HTTP endpoint would. Useful for backfilling an
export of historical notifications.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Int("chunk-size", 25, "notifications per batch")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	if chunkSize <= 0 {
		chunkSize = 25
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var payload struct {
		Notifications []model.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	if len(payload.Notifications) == 0 {
		cmd.Println("Nothing to ingest")
		return nil
	}

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pipeline, err := buildPipeline(ctx, store)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(payload.Notifications),
		progressbar.OptionSetDescription("Ingesting notifications"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	total := model.BatchResult{}
	for start := 0; start < len(payload.Notifications); start += chunkSize {
		end := start + chunkSize
		if end > len(payload.Notifications) {
			end = len(payload.Notifications)
		}

		result, err := pipeline.ProcessBatch(ctx, payload.Notifications[start:end])
		if err != nil {
			return fmt.Errorf("batch starting at %d failed: %w", start, err)
		}

		total.New += result.New
		total.Duplicates += result.Duplicates
		total.Errors += result.Errors
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	cmd.Printf("Ingested %d notification(s): %d new, %d duplicates, %d errors\n",
		len(payload.Notifications), total.New, total.Duplicates, total.Errors)
	return nil
}
