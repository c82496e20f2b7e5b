package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"FundingArchive/internal/app"
)

var reviewListLimit int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Moderate summaries waiting for approval",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending summaries",
	Args:  cobra.NoArgs,
	RunE:  runReviewList,
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <summary-id>...",
	Short: "Publish pending summaries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReviewApprove,
}

func init() {
	reviewListCmd.Flags().IntVar(&reviewListLimit, "limit", 50, "maximum number of entries")
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
}

func runReviewList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		pending, err := a.Reviews().Pending(ctx, reviewListLimit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no pending summaries")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUMMARY\tMESSAGE\tQUEUED\tTITLE")
		for _, p := range pending {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", p.SummaryID, p.MessageID, p.CreatedAt.Format(time.DateTime), p.Title)
		}
		return w.Flush()
	})
}

func runReviewApprove(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		if err := a.Reviews().Approve(ctx, ids...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "approved %d summaries\n", len(ids))
		return nil
	})
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid summary id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
