package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"FundingArchive/internal/app"
)

var (
	ingestSince    string
	ingestLookback time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, summarize and store new channel messages once",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSince, "since", "", "RFC3339 timestamp to fetch from")
	ingestCmd.Flags().DurationVar(&ingestLookback, "lookback", 0, "fetch messages newer than now minus this duration")
}

func runIngest(cmd *cobra.Command, args []string) error {
	since, err := resolveSince(ingestSince, ingestLookback, time.Now())
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		report, err := a.Ingest(ctx, since)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched=%d skipped=%d saved=%d summarized=%d pending=%d\n",
			report.Fetched, report.Skipped, report.Saved, report.Summarized, report.Pending)
		return nil
	})
}

// resolveSince returns the zero time when neither flag is set so the
// configured scheduler lookback applies.
func resolveSince(since string, lookback time.Duration, now time.Time) (time.Time, error) {
	switch {
	case since != "" && lookback != 0:
		return time.Time{}, fmt.Errorf("--since and --lookback are mutually exclusive")
	case since != "":
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse --since: %w", err)
		}
		return t, nil
	case lookback < 0:
		return time.Time{}, fmt.Errorf("--lookback must be positive")
	case lookback > 0:
		return now.Add(-lookback), nil
	default:
		return time.Time{}, nil
	}
}
