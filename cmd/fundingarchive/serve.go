package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"FundingArchive/internal/app"
	"FundingArchive/internal/domain"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, feeds, MCP endpoint and the ingestion scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		if serveMigrate {
			err := a.Migrate(ctx)
			switch {
			case errors.Is(err, domain.ErrNotConfigured):
				logger.Warn("skipping migrations, database is not configured")
			case err != nil:
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return a.Serve(ctx)
	})
}
