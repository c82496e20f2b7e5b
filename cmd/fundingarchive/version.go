package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"FundingArchive/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fundingarchive version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "fundingarchive", app.Version)
	},
}
