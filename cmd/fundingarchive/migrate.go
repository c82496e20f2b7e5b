package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"FundingArchive/internal/app"
)

var migrateNoFullText bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed the category list",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateNoFullText, "no-fulltext", false, "skip the full-text index")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateNoFullText {
		cfg.Database.DisableFullText = true
	}
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		if err := a.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	})
}
