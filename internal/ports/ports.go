package ports

import (
	"context"
	"time"

	"FundingArchive/internal/domain"
)

// MessageSource pulls fresh announcements from upstream channels.
type MessageSource interface {
	FetchSince(ctx context.Context, since time.Time) ([]domain.Message, error)
}

// IngestRepository persists ingested messages and their summaries.
type IngestRepository interface {
	AlreadyIngested(ctx context.Context, externalIDs []string) (map[string]bool, error)
	SaveIngested(ctx context.Context, update domain.IngestedUpdate) (int64, error)
}

// ArchiveReader is the read side of the funding-update query layer.
type ArchiveReader interface {
	Search(ctx context.Context, params domain.SearchParams) (domain.SearchPage, error)
	Categories(ctx context.Context) ([]domain.CategoryCount, error)
	Suggestions(ctx context.Context, params domain.SuggestionParams) ([]domain.Suggestion, error)
}

// ReviewRepository drives the moderation queue.
type ReviewRepository interface {
	PendingReviews(ctx context.Context, limit int) ([]domain.PendingReview, error)
	ApproveReview(ctx context.Context, summaryID int64) error
}

// GrantRepository stores legacy grant entries.
type GrantRepository interface {
	UpsertGrant(ctx context.Context, grant domain.GrantEntry) (int64, error)
	GrantBySlug(ctx context.Context, slug string) (domain.GrantEntry, error)
	RecentGrants(ctx context.Context, limit int) ([]domain.GrantEntry, error)
	UpdateBySourceURL(ctx context.Context, sourceURL string) (*domain.Update, error)
}

// Summarizer turns a raw message into a structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, message domain.Message) (domain.Summary, error)
}

// Notifier streams moderation digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
