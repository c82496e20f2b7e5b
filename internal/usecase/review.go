package usecase

import (
	"context"
	"fmt"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/ports"
)

// ReviewQueue exposes the moderation queue to the CLI.
type ReviewQueue struct {
	repo ports.ReviewRepository
}

// NewReviewQueue wires the review store.
func NewReviewQueue(repo ports.ReviewRepository) *ReviewQueue {
	return &ReviewQueue{repo: repo}
}

// Pending lists summaries waiting for approval.
func (q *ReviewQueue) Pending(ctx context.Context, limit int) ([]domain.PendingReview, error) {
	if q.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidParams)
	}
	pending, err := q.repo.PendingReviews(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return pending, nil
}

// Approve publishes the given summaries; it stops at the first failure.
func (q *ReviewQueue) Approve(ctx context.Context, summaryIDs ...int64) error {
	if q.repo == nil {
		return domain.ErrNotConfigured
	}
	if len(summaryIDs) == 0 {
		return fmt.Errorf("%w: no summary ids", ErrInvalidParams)
	}
	for _, id := range summaryIDs {
		if id <= 0 {
			return fmt.Errorf("%w: summary id must be positive, got %d", ErrInvalidParams, id)
		}
		if err := q.repo.ApproveReview(ctx, id); err != nil {
			return fmt.Errorf("approve summary %d: %w", id, err)
		}
	}
	return nil
}
