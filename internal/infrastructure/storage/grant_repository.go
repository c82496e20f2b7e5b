package storage

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"FundingArchive/internal/domain"
)

var grantColumns = []string{
	"id", "title", "slug", "category", "content", "source_url", "tags", "published_at", "external_id",
}

// UpsertGrant inserts a grant entry or refreshes it in place, keyed by external id.
func (r *Repository) UpsertGrant(ctx context.Context, grant domain.GrantEntry) (int64, error) {
	if r.db == nil {
		return 0, notConfigured("upsert grant")
	}

	query, args, err := r.sb.Insert("grant_entries").
		Columns("title", "slug", "category", "content", "source_url", "source_url_normalized", "tags", "published_at", "external_id").
		Values(
			grant.Title,
			grant.Slug,
			grant.Category,
			grant.Content,
			grant.SourceURL,
			NormalizeURL(grant.SourceURL),
			joinTags(grant.Tags),
			grant.PublishedAt.UTC(),
			grant.ExternalID,
		).
		Suffix(`ON CONFLICT (external_id) DO UPDATE
              SET title = EXCLUDED.title,
                  slug = EXCLUDED.slug,
                  category = EXCLUDED.category,
                  content = EXCLUDED.content,
                  source_url = EXCLUDED.source_url,
                  source_url_normalized = EXCLUDED.source_url_normalized,
                  tags = EXCLUDED.tags,
                  published_at = EXCLUDED.published_at
              RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build grant upsert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapErr("upsert grant", err)
	}
	return id, nil
}

// GrantBySlug loads one grant entry; ErrNotFound when the slug is unknown.
func (r *Repository) GrantBySlug(ctx context.Context, slug string) (domain.GrantEntry, error) {
	if r.db == nil {
		return domain.GrantEntry{}, notConfigured("grant by slug")
	}

	var (
		grant domain.GrantEntry
		tags  string
	)
	b := r.sb.Select(grantColumns...).From("grant_entries").Where(sq.Eq{"slug": slug})
	err := r.queryRow(ctx, "grant by slug", b,
		&grant.ID, &grant.Title, &grant.Slug, &grant.Category, &grant.Content,
		&grant.SourceURL, &tags, &grant.PublishedAt, &grant.ExternalID)
	if err != nil {
		return domain.GrantEntry{}, err
	}
	grant.Tags = splitTags(tags)
	return grant, nil
}

// RecentGrants lists grant entries, newest first.
func (r *Repository) RecentGrants(ctx context.Context, limit int) ([]domain.GrantEntry, error) {
	if r.db == nil {
		return nil, notConfigured("recent grants")
	}
	if limit <= 0 {
		limit = 100
	}

	b := r.sb.Select(grantColumns...).
		From("grant_entries").
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(limit))

	rows, err := r.query(ctx, "recent grants", b)
	if err != nil {
		return nil, err
	}

	var (
		grants  []domain.GrantEntry
		scanErr error
	)
	for rows.Next() {
		var (
			grant domain.GrantEntry
			tags  string
		)
		scanErr = rows.Scan(&grant.ID, &grant.Title, &grant.Slug, &grant.Category, &grant.Content,
			&grant.SourceURL, &tags, &grant.PublishedAt, &grant.ExternalID)
		if scanErr != nil {
			break
		}
		grant.Tags = splitTags(tags)
		grants = append(grants, grant)
	}
	if err := closeRows("recent grants", rows, scanErr); err != nil {
		return nil, err
	}
	return grants, nil
}

// UpdateBySourceURL finds the newest visible update that links to sourceURL,
// comparing normalized URLs exactly. It returns nil when nothing matches.
func (r *Repository) UpdateBySourceURL(ctx context.Context, sourceURL string) (*domain.Update, error) {
	if r.db == nil {
		return nil, notConfigured("update by source url")
	}
	normalized := NormalizeURL(sourceURL)
	if normalized == "" {
		return nil, nil
	}

	b := r.selectUpdates(updateColumns...).
		Join("message_urls mu ON mu.message_id = m.id").
		Where(sq.Eq{"mu.url": normalized}).
		Where(visibleSummary).
		OrderBy("m.ts DESC", "m.id DESC").
		Limit(1)

	var row updateRow
	if err := r.queryRow(ctx, "update by source url", b, row.dest()...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	update, err := row.finish()
	if err != nil {
		return nil, wrapErr("update by source url", err)
	}
	return &update, nil
}

func joinTags(tags []string) string {
	return strings.Join(cleanNames(tags), ",")
}

func splitTags(raw string) []string {
	return cleanNames(strings.Split(raw, ","))
}
