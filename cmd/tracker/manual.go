package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/johnchik/llm-expense-tracker/internal/manual"
	"github.com/johnchik/llm-expense-tracker/internal/model"
)

func manualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Manage manual transaction entries",
	}

	cmd.AddCommand(manualAddCmd())
	cmd.AddCommand(manualSyncCmd())

	return cmd
}

func manualAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction by hand",
		Long: `Record a transaction that never produced a notification: cash spending,
a settled IOU, an expense from a non-forwarding app. The entry skips
classification and dedup and lands straight in its monthly partition.`,
		RunE: runManualAdd,
	}

	cmd.Flags().String("date", "", "transaction datetime (2006-01-02 15:04, default now)")
	cmd.Flags().String("category", "Other", "spending category")
	cmd.Flags().String("description", "", "merchant or counterparty")
	cmd.Flags().String("currency", "HKD", "currency code")
	cmd.Flags().String("amount", "", "signed amount (negative for expenses)")
	cmd.Flags().String("payment-method", "", "payment method")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runManualAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", rawAmount, err)
	}

	ts := time.Now()
	if rawDate, _ := cmd.Flags().GetString("date"); rawDate != "" {
		ts, err = time.ParseInLocation(model.DatetimeLayout, rawDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", rawDate, err)
		}
	}

	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")
	currency, _ := cmd.Flags().GetString("currency")
	paymentMethod, _ := cmd.Flags().GetString("payment-method")

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manualTable, err := store.GetOrCreate(ctx, model.ManualTableName, model.ManualHeaders)
	if err != nil {
		return err
	}

	entry := manual.Entry{
		Timestamp:     ts,
		Category:      category,
		Description:   description,
		Currency:      currency,
		Amount:        amount,
		PaymentMethod: paymentMethod,
	}
	if err := manual.New(store, manualTable).Record(ctx, entry); err != nil {
		return err
	}

	cmd.Printf("Recorded %s %s in %s\n", currency, amount.StringFixed(2), model.MonthlyTableName(ts))
	return nil
}

func manualSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Route staged manual entries to monthly tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manualTable, err := store.GetOrCreate(ctx, model.ManualTableName, model.ManualHeaders)
			if err != nil {
				return err
			}

			synced, err := manual.New(store, manualTable).SyncAll(ctx)
			if err != nil {
				return err
			}

			cmd.Printf("Synced %d manual entr%s\n", synced, pluralY(synced))
			return nil
		},
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
