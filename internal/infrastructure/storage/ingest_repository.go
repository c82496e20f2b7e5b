package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"FundingArchive/internal/domain"
)

// AlreadyIngested returns a map with external IDs that already exist in storage.
func (r *Repository) AlreadyIngested(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	if r.db == nil {
		return nil, notConfigured("already ingested")
	}
	if len(externalIDs) == 0 {
		return map[string]bool{}, nil
	}

	b := r.sb.Select("external_id").From("messages").Where(sq.Eq{"external_id": externalIDs})
	rows, err := r.query(ctx, "query ingested", b)
	if err != nil {
		return nil, err
	}

	result := make(map[string]bool)
	var scanErr error
	for rows.Next() {
		var id string
		if scanErr = rows.Scan(&id); scanErr != nil {
			break
		}
		result[id] = true
	}
	if err := closeRows("query ingested", rows, scanErr); err != nil {
		return nil, err
	}

	return result, nil
}

// SaveIngested stores the message, its normalized URLs, the summary and the
// review marker in one transaction and returns the message id.
func (r *Repository) SaveIngested(ctx context.Context, update domain.IngestedUpdate) (int64, error) {
	if r.db == nil {
		return 0, notConfigured("save ingested")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("begin ingest", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	messageID, err := r.insertMessage(ctx, tx, update.Message)
	if err != nil {
		return 0, err
	}

	if update.Summary != nil {
		summaryID, err := r.insertSummary(ctx, tx, messageID, *update.Summary)
		if err != nil {
			return 0, err
		}
		if update.Review == domain.ReviewPending {
			if err := r.insertReview(ctx, tx, summaryID); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapErr("commit ingest", err)
	}
	return messageID, nil
}

func (r *Repository) insertMessage(ctx context.Context, tx *sql.Tx, msg domain.Message) (int64, error) {
	urls := msg.URLs
	if urls == nil {
		urls = []string{}
	}
	rawURLs, err := json.Marshal(urls)
	if err != nil {
		return 0, fmt.Errorf("marshal urls: %w", err)
	}

	query, args, err := r.sb.Insert("messages").
		Columns("external_id", "ts", "text", "urls").
		Values(msg.ExternalID, msg.Timestamp.UTC(), msg.Text, string(rawURLs)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build message insert: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapErr("insert message", err)
	}

	for _, raw := range urls {
		normalized := NormalizeURL(raw)
		if normalized == "" {
			continue
		}
		query, args, err := r.sb.Insert("message_urls").
			Columns("message_id", "url").
			Values(id, normalized).
			Suffix("ON CONFLICT DO NOTHING").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build url insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, wrapErr("insert message url", err)
		}
	}

	return id, nil
}

func (r *Repository) insertSummary(ctx context.Context, tx *sql.Tx, messageID int64, summary domain.Summary) (int64, error) {
	var categoryID sql.NullInt64
	if summary.CategoryName != "" {
		query, args, err := r.sb.Select("id").From("categories").Where(sq.Eq{"name": summary.CategoryName}).ToSql()
		if err != nil {
			return 0, fmt.Errorf("build category lookup: %w", err)
		}
		err = tx.QueryRowContext(ctx, query, args...).Scan(&categoryID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, wrapErr("lookup category", err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("summary category is not in the taxonomy", "category", summary.CategoryName, "message_id", messageID)
		}
	}

	entities, err := json.Marshal(summary.Entities)
	if err != nil {
		return 0, fmt.Errorf("marshal entities: %w", err)
	}

	var text sql.NullString
	if summary.Text != "" {
		text = sql.NullString{String: summary.Text, Valid: true}
	}

	query, args, err := r.sb.Insert("summaries").
		Columns("message_id", "title", "summary", "entities", "category_id").
		Values(messageID, summary.Title, text, string(entities), categoryID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build summary insert: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapErr("insert summary", err)
	}
	return id, nil
}

func (r *Repository) insertReview(ctx context.Context, tx *sql.Tx, summaryID int64) error {
	query, args, err := r.sb.Insert("summary_reviews").
		Columns("summary_id", "status", "created_at").
		Values(summaryID, string(domain.ReviewPending), time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build review insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapErr("insert review", err)
	}
	return nil
}

// PendingReviews lists summaries waiting for a moderator, oldest first.
func (r *Repository) PendingReviews(ctx context.Context, limit int) ([]domain.PendingReview, error) {
	if r.db == nil {
		return nil, notConfigured("pending reviews")
	}
	if limit <= 0 {
		limit = 50
	}

	b := r.sb.Select("r.summary_id", "s.message_id", "s.title", "r.created_at").
		From("summary_reviews r").
		Join("summaries s ON s.id = r.summary_id").
		Where(sq.Eq{"r.status": string(domain.ReviewPending)}).
		OrderBy("r.created_at ASC", "r.summary_id ASC").
		Limit(uint64(limit))

	rows, err := r.query(ctx, "pending reviews", b)
	if err != nil {
		return nil, err
	}

	var (
		pending []domain.PendingReview
		scanErr error
	)
	for rows.Next() {
		var p domain.PendingReview
		if scanErr = rows.Scan(&p.SummaryID, &p.MessageID, &p.Title, &p.CreatedAt); scanErr != nil {
			break
		}
		pending = append(pending, p)
	}
	if err := closeRows("pending reviews", rows, scanErr); err != nil {
		return nil, err
	}
	return pending, nil
}

// ApproveReview resolves a pending review; ErrNotFound when nothing was pending.
func (r *Repository) ApproveReview(ctx context.Context, summaryID int64) error {
	if r.db == nil {
		return notConfigured("approve review")
	}

	query, args, err := r.sb.Update("summary_reviews").
		Set("status", string(domain.ReviewApproved)).
		Set("resolved_at", time.Now().UTC()).
		Where(sq.Eq{"summary_id": summaryID, "status": string(domain.ReviewPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build review update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr("approve review", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("approve review", err)
	}
	if n == 0 {
		return &Error{Op: "approve review", Kind: ErrNotFound, Err: fmt.Errorf("no pending review for summary %d", summaryID)}
	}
	return nil
}
