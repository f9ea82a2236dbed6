package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/johnchik/llm-expense-tracker/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the notification intake server",
		Long: `Start the HTTP server that accepts batches of forwarded notifications,
classifies them, and files them into the configured store.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pipeline, err := buildPipeline(ctx, store)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{Addr: viper.GetString("server.addr")}, pipeline)
	return srv.Run(ctx)
}
