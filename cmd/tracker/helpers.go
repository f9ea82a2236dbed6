package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/johnchik/llm-expense-tracker/internal/dupindex"
	"github.com/johnchik/llm-expense-tracker/internal/intake"
	"github.com/johnchik/llm-expense-tracker/internal/llm"
	"github.com/johnchik/llm-expense-tracker/internal/model"
	"github.com/johnchik/llm-expense-tracker/internal/reconcile"
	"github.com/johnchik/llm-expense-tracker/internal/service"
	"github.com/johnchik/llm-expense-tracker/internal/sheets"
	"github.com/johnchik/llm-expense-tracker/internal/storage"
)

// initStore opens the configured table store backend.
func initStore(ctx context.Context) (service.TableStore, error) {
	backend := viper.GetString("storage.backend")
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "sqlite":
		dbPath := viper.GetString("storage.path")
		if dbPath == "" {
			dbPath = "$HOME/.local/share/tracker/tracker.db"
		}
		store, err := storage.NewSQLiteStore(expandPath(dbPath))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil
	case "sheets":
		return sheets.NewStore(ctx, sheets.Config{
			ClientID:           viper.GetString("sheets.client_id"),
			ClientSecret:       viper.GetString("sheets.client_secret"),
			RefreshToken:       viper.GetString("sheets.refresh_token"),
			ServiceAccountPath: expandPath(viper.GetString("sheets.service_account_path")),
			SpreadsheetID:      viper.GetString("sheets.spreadsheet_id"),
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

// buildPipeline wires the intake path: staging log, duplicate index,
// classifier, and the reconciler that runs after each batch.
func buildPipeline(ctx context.Context, store service.TableStore) (*intake.Pipeline, error) {
	logTable, err := store.GetOrCreate(ctx, model.LogTableName, model.LogHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to open log table: %w", err)
	}
	indexTable, err := store.GetOrCreate(ctx, model.DuplicateIndexTableName, model.DuplicateIndexHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to open duplicate index: %w", err)
	}

	client, err := llm.NewClient(llm.Config{
		Provider:          viper.GetString("llm.provider"),
		APIKey:            viper.GetString("llm.api_key"),
		BaseURL:           viper.GetString("llm.base_url"),
		Model:             viper.GetString("llm.model"),
		Temperature:       viper.GetFloat64("llm.temperature"),
		MaxTokens:         viper.GetInt("llm.max_tokens"),
		RequestsPerMinute: viper.GetInt("llm.requests_per_minute"),
		Timeout:           viper.GetDuration("llm.timeout"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	classifier := llm.NewClassifier(client, llm.Config{
		RequestsPerMinute: viper.GetInt("llm.requests_per_minute"),
		Timeout:           viper.GetDuration("llm.timeout"),
	})

	index := dupindex.New(indexTable, dupindex.Options{
		CheckLimit: viper.GetInt("dedup.check_limit"),
		MaxEntries: viper.GetInt("dedup.max_entries"),
	})

	allowlist := viper.GetStringSlice("intake.grouped_allowlist")
	if len(allowlist) == 0 {
		allowlist = []string{"ZA Bank"}
	}

	return intake.New(
		logTable,
		index,
		intake.ClassifierFunc(func(ctx context.Context, n model.Notification) (model.Classification, error) {
			return classifier.Classify(ctx, n), nil
		}),
		reconcile.New(store, logTable),
		intake.Options{GroupedAllowlist: allowlist, Now: time.Now},
	), nil
}

// expandPath expands $VAR references and a leading tilde.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
