package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/johnchik/llm-expense-tracker/internal/prices"
)

func pricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Refresh stock prices and the holdings summary",
	}

	cmd.AddCommand(pricesRefreshCmd())

	return cmd
}

func pricesRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch current quotes and rebuild the holdings summary",
		Long: `Fetch a quote for every ticker in the stock holding table, fill in the
current price and value columns, then rebuild the holdings summary with
average-cost positions and profit/loss against the fresh quotes.`,
		RunE: runPricesRefresh,
	}
}

func runPricesRefresh(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := prices.NewClient(prices.Config{
		APIKey:  viper.GetString("prices.api_key"),
		BaseURL: viper.GetString("prices.base_url"),
	})
	if err != nil {
		return err
	}

	if err := prices.NewEnricher(store, client).RefreshAll(ctx); err != nil {
		return err
	}

	cmd.Println("Prices refreshed and summary rebuilt")
	return nil
}
