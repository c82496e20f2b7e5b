package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/logging"
	"FundingArchive/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source          ports.MessageSource
	Repository      ports.IngestRepository
	Summarizer      ports.Summarizer
	Notifier        ports.Notifier
	RequireApproval bool
	Logger          *slog.Logger
}

// Pipeline implements the announcement-ingestion workflow.
type Pipeline struct {
	source          ports.MessageSource
	repository      ports.IngestRepository
	summarizer      ports.Summarizer
	notifier        ports.Notifier
	requireApproval bool
	logger          *slog.Logger
}

// IngestReport counts what one run did.
type IngestReport struct {
	Fetched    int
	Skipped    int
	Saved      int
	Summarized int
	Pending    int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		source:          deps.Source,
		repository:      deps.Repository,
		summarizer:      deps.Summarizer,
		notifier:        deps.Notifier,
		requireApproval: deps.RequireApproval,
		logger:          logger,
	}
}

type pendingItem struct {
	messageID int64
	title     string
}

// Run fetches messages published since the given time, summarizes the new
// ones and stores them. A summarizer failure keeps the bare message, which
// stays searchable by its raw text.
func (p *Pipeline) Run(ctx context.Context, since time.Time) (IngestReport, error) {
	var report IngestReport
	if p.source == nil {
		return report, nil
	}
	if p.repository == nil {
		return report, fmt.Errorf("ingest repository is not configured")
	}

	messages, err := p.source.FetchSince(ctx, since)
	if err != nil {
		return report, fmt.Errorf("fetch messages: %w", err)
	}
	report.Fetched = len(messages)

	ids := make([]string, len(messages))
	for i, msg := range messages {
		ids[i] = msg.ExternalID
	}

	skip := map[string]bool{}
	if len(ids) > 0 {
		skip, err = p.repository.AlreadyIngested(ctx, ids)
		if err != nil {
			return report, fmt.Errorf("load ingested: %w", err)
		}
	}

	var pending []pendingItem
	for _, msg := range messages {
		if skip[msg.ExternalID] {
			report.Skipped++
			continue
		}
		skip[msg.ExternalID] = true

		update := domain.IngestedUpdate{Message: msg, Review: domain.ReviewApproved}
		if p.summarizer != nil {
			summary, sErr := p.summarizer.Summarize(ctx, msg)
			if sErr != nil {
				p.logger.Warn("summarize failed, storing bare message", "external_id", msg.ExternalID, "error", sErr)
			} else {
				update.Summary = &summary
				if p.requireApproval {
					update.Review = domain.ReviewPending
				}
			}
		}

		id, err := p.repository.SaveIngested(ctx, update)
		if err != nil {
			return report, fmt.Errorf("persist message %s: %w", msg.ExternalID, err)
		}
		report.Saved++
		if update.Summary != nil {
			report.Summarized++
			if update.Review == domain.ReviewPending {
				report.Pending++
				pending = append(pending, pendingItem{messageID: id, title: update.Summary.Title})
			}
		}
	}

	p.logger.Info("ingest finished",
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"saved", report.Saved,
		"summarized", report.Summarized,
		"pending", report.Pending)

	if len(pending) == 0 || p.notifier == nil {
		return report, nil
	}
	if err := p.notifier.PublishDigest(ctx, buildReviewDigest(pending)); err != nil {
		return report, fmt.Errorf("notify moderators: %w", err)
	}
	return report, nil
}

func buildReviewDigest(items []pendingItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d new summaries await review*\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- #%d %s\n", item.messageID, item.title)
	}
	return b.String()
}
