package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"FundingArchive/internal/config"
	"FundingArchive/internal/domain"
	"FundingArchive/internal/logging"
	"FundingArchive/internal/ports"
)

// ErrInvalidParams marks requests rejected before reaching the store.
var ErrInvalidParams = errors.New("invalid parameters")

const (
	maxQueryLength      = 256
	maxPrefixLength     = 64
	defaultSuggestLimit = 8
	maxSuggestLimit     = 50
	maxCategoryFilters  = 20
)

// Archive is the read-side service in front of the query layer. Store
// failures come back as an empty result plus the classified error so callers
// can render "no data" and still tell an outage from zero matches.
type Archive struct {
	reader       ports.ArchiveReader
	grants       ports.GrantRepository
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
}

// NewArchive wires the reader and grant store with the configured limits.
func NewArchive(reader ports.ArchiveReader, grants ports.GrantRepository, cfg config.SearchConfig, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &Archive{
		reader:       reader,
		grants:       grants,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		logger:       logger,
	}
	if a.maxLimit <= 0 {
		a.maxLimit = 100
	}
	if a.defaultLimit <= 0 || a.defaultLimit > a.maxLimit {
		a.defaultLimit = min(20, a.maxLimit)
	}
	return a
}

// Search validates params, applies the default limit and queries the store.
// A zero limit means "default"; limits above the maximum are clamped.
// Transports that receive an explicit limit reject zero themselves.
func (a *Archive) Search(ctx context.Context, params domain.SearchParams) (domain.SearchPage, error) {
	empty := domain.SearchPage{Items: []domain.Update{}}

	params.Query = strings.TrimSpace(params.Query)
	if utf8.RuneCountInString(params.Query) > maxQueryLength {
		return empty, fmt.Errorf("%w: query longer than %d characters", ErrInvalidParams, maxQueryLength)
	}
	if len(params.Categories) > maxCategoryFilters {
		return empty, fmt.Errorf("%w: at most %d categories", ErrInvalidParams, maxCategoryFilters)
	}
	if params.Cursor != nil && *params.Cursor <= 0 {
		return empty, fmt.Errorf("%w: cursor must be positive", ErrInvalidParams)
	}
	switch {
	case params.Limit < 0:
		return empty, fmt.Errorf("%w: limit must be positive", ErrInvalidParams)
	case params.Limit == 0:
		params.Limit = a.defaultLimit
	case params.Limit > a.maxLimit:
		params.Limit = a.maxLimit
	}

	if a.reader == nil {
		return empty, domain.ErrNotConfigured
	}

	page, err := a.reader.Search(ctx, params)
	if err != nil {
		a.logger.Warn("search degraded", "kind", FailureKind(err), "error", err)
		return empty, err
	}
	if page.Items == nil {
		page.Items = []domain.Update{}
	}
	return page, nil
}

// Categories lists every category with its visible count.
func (a *Archive) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	if a.reader == nil {
		return []domain.CategoryCount{}, domain.ErrNotConfigured
	}
	counts, err := a.reader.Categories(ctx)
	if err != nil {
		a.logger.Warn("categories degraded", "kind", FailureKind(err), "error", err)
		return []domain.CategoryCount{}, err
	}
	if counts == nil {
		counts = []domain.CategoryCount{}
	}
	return counts, nil
}

// Suggestions autocompletes a non-empty prefix.
func (a *Archive) Suggestions(ctx context.Context, params domain.SuggestionParams) ([]domain.Suggestion, error) {
	empty := []domain.Suggestion{}

	params.Prefix = strings.TrimSpace(params.Prefix)
	if params.Prefix == "" {
		return empty, fmt.Errorf("%w: prefix is required", ErrInvalidParams)
	}
	if utf8.RuneCountInString(params.Prefix) > maxPrefixLength {
		return empty, fmt.Errorf("%w: prefix longer than %d characters", ErrInvalidParams, maxPrefixLength)
	}
	switch {
	case params.Limit < 0:
		return empty, fmt.Errorf("%w: limit must be positive", ErrInvalidParams)
	case params.Limit == 0:
		params.Limit = defaultSuggestLimit
	case params.Limit > maxSuggestLimit:
		params.Limit = maxSuggestLimit
	}

	if a.reader == nil {
		return empty, domain.ErrNotConfigured
	}
	suggestions, err := a.reader.Suggestions(ctx, params)
	if err != nil {
		a.logger.Warn("suggestions degraded", "kind", FailureKind(err), "error", err)
		return empty, err
	}
	if suggestions == nil {
		suggestions = empty
	}
	return suggestions, nil
}

// Grant loads a legacy grant entry and the update that links to its source.
// A failing related lookup is logged and leaves Related empty.
func (a *Archive) Grant(ctx context.Context, slug string) (domain.GrantDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.GrantDetail{}, fmt.Errorf("%w: slug is required", ErrInvalidParams)
	}
	if a.grants == nil {
		return domain.GrantDetail{}, domain.ErrNotConfigured
	}

	grant, err := a.grants.GrantBySlug(ctx, slug)
	if err != nil {
		return domain.GrantDetail{}, fmt.Errorf("load grant %s: %w", slug, err)
	}

	detail := domain.GrantDetail{Grant: grant}
	if grant.SourceURL != "" {
		related, err := a.grants.UpdateBySourceURL(ctx, grant.SourceURL)
		if err != nil {
			a.logger.Warn("related update lookup failed", "slug", slug, "kind", FailureKind(err), "error", err)
		} else {
			detail.Related = related
		}
	}
	return detail, nil
}

// Recent returns the newest visible updates and grant entries for feeds.
func (a *Archive) Recent(ctx context.Context, limit int) ([]domain.Update, []domain.GrantEntry, error) {
	if limit <= 0 || limit > a.maxLimit {
		limit = a.maxLimit
	}

	page, err := a.Search(ctx, domain.SearchParams{Limit: limit})
	if err != nil {
		return page.Items, nil, err
	}

	if a.grants == nil {
		return page.Items, nil, nil
	}
	grants, err := a.grants.RecentGrants(ctx, limit)
	if err != nil {
		a.logger.Warn("recent grants degraded", "kind", FailureKind(err), "error", err)
		return page.Items, nil, err
	}
	return page.Items, grants, nil
}

// FailureKind names the failure class for responses and logs; empty for
// validation errors and nil.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidParams):
		return ""
	case errors.Is(err, domain.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "query"
	}
}
