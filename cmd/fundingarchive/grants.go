package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"FundingArchive/internal/app"
)

var grantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "Manage legacy grant entries",
}

var grantsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Upsert grant entries from a YAML export",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrantsImport,
}

func init() {
	grantsCmd.AddCommand(grantsImportCmd)
}

func runGrantsImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open grants file: %w", err)
	}
	defer f.Close()

	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		n, err := a.Grants().ImportYAML(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d grants\n", n)
		return nil
	})
}
