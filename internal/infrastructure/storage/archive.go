package storage

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"FundingArchive/internal/domain"
)

var updateColumns = []string{
	"m.id", "m.ts", "m.text", "m.urls",
	"s.title", "s.summary", "s.entities", "s.category_id", "c.name",
}

func (r *Repository) selectUpdates(columns ...string) sq.SelectBuilder {
	return r.sb.Select(columns...).
		From("messages m").
		LeftJoin("summaries s ON s.message_id = m.id").
		LeftJoin("categories c ON c.id = s.category_id")
}

// Search returns one page of visible updates and the total matching count.
// Page and count run as two independent queries without a shared snapshot,
// so a concurrent write may make them disagree briefly.
func (r *Repository) Search(ctx context.Context, params domain.SearchParams) (domain.SearchPage, error) {
	page := domain.SearchPage{Items: []domain.Update{}}
	if r.db == nil {
		return page, notConfigured("search")
	}
	if params.Limit <= 0 {
		return page, &Error{Op: "search", Kind: ErrQuery, Err: fmt.Errorf("limit must be positive, got %d", params.Limit)}
	}

	filter := newSearchFilter(r.dialect, r.searchCapability(ctx), params)

	var (
		items []domain.Update
		next  *int64
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, next, err = r.searchPage(gctx, filter, params.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = r.searchCount(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return page, err
	}

	page.Items = items
	page.NextCursor = next
	page.Total = total
	return page, nil
}

// searchPageQuery fetches limit+1 rows so the extra one proves a next page.
// Ranked queries take the next ids below the cursor and are ordered by
// relevance inside that window, so chaining on `id < cursor` visits every
// match exactly once.
func (r *Repository) searchPageQuery(filter searchFilter, limit int) sq.SelectBuilder {
	b := r.selectUpdates(updateColumns...)
	if filter.ranked() {
		b = b.Column(sq.Alias(filter.rank, "score")).OrderBy("m.id DESC")
	} else {
		b = b.OrderBy("m.ts DESC", "m.id DESC")
	}
	return filter.apply(b, true).Limit(uint64(limit + 1))
}

type scoredUpdate struct {
	domain.Update
	score float64
}

func (r *Repository) searchPage(ctx context.Context, filter searchFilter, limit int) ([]domain.Update, *int64, error) {
	rows, err := r.query(ctx, "search page", r.searchPageQuery(filter, limit))
	if err != nil {
		return nil, nil, err
	}

	scored := make([]scoredUpdate, 0, limit+1)
	var scanErr error
	for rows.Next() {
		var (
			row   updateRow
			score float64
		)
		dest := row.dest()
		if filter.ranked() {
			dest = append(dest, &score)
		}
		if scanErr = rows.Scan(dest...); scanErr != nil {
			break
		}
		update, err := row.finish()
		if err != nil {
			scanErr = err
			break
		}
		scored = append(scored, scoredUpdate{Update: update, score: score})
	}
	if err := closeRows("search page", rows, scanErr); err != nil {
		return nil, nil, err
	}

	var next *int64
	if len(scored) > limit {
		scored = scored[:limit]
		id := scored[limit-1].ID
		next = &id
	}
	if filter.ranked() {
		slices.SortStableFunc(scored, byRelevance)
	}

	items := make([]domain.Update, len(scored))
	for i, s := range scored {
		items[i] = s.Update
	}
	return items, next, nil
}

// byRelevance orders by score, then timestamp, then id, all descending.
func byRelevance(a, b scoredUpdate) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (r *Repository) searchCount(ctx context.Context, filter searchFilter) (int, error) {
	b := filter.apply(r.selectUpdates("COUNT(*)"), false)

	var total int
	if err := r.queryRow(ctx, "search count", b, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// Categories counts visible summaries per category. Categories without any
// visible summary are reported with a zero count.
func (r *Repository) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	if r.db == nil {
		return []domain.CategoryCount{}, notConfigured("categories")
	}

	b := r.sb.Select("c.id", "c.name", "COUNT(s.id) AS cnt").
		From("categories c").
		LeftJoin("summaries s ON s.category_id = c.id AND " + visibleSummary).
		GroupBy("c.id", "c.name").
		OrderBy("cnt DESC", "c.name ASC")

	rows, err := r.query(ctx, "categories", b)
	if err != nil {
		return []domain.CategoryCount{}, err
	}

	counts := make([]domain.CategoryCount, 0, len(domain.KnownCategories))
	var scanErr error
	for rows.Next() {
		var cc domain.CategoryCount
		if scanErr = rows.Scan(&cc.ID, &cc.Name, &cc.Count); scanErr != nil {
			break
		}
		counts = append(counts, cc)
	}
	if err := closeRows("categories", rows, scanErr); err != nil {
		return []domain.CategoryCount{}, err
	}
	return counts, nil
}

const (
	sqliteSuggestionPool = `SELECT p.value AS term, 'protocol' AS kind FROM summaries s, json_each(s.entities, '$.protocols') p WHERE ` + visibleSummary + `
UNION ALL
SELECT k.value AS term, 'key_term' AS kind FROM summaries s, json_each(s.entities, '$.key_terms') k WHERE ` + visibleSummary + `
UNION ALL
SELECT c.name AS term, 'category' AS kind FROM categories c`

	postgresSuggestionPool = `SELECT p.term, 'protocol'::text AS kind FROM summaries s
CROSS JOIN LATERAL jsonb_array_elements_text(CASE WHEN jsonb_typeof(s.entities->'protocols') = 'array' THEN s.entities->'protocols' ELSE '[]'::jsonb END) AS p(term)
WHERE ` + visibleSummary + `
UNION ALL
SELECT k.term, 'key_term'::text AS kind FROM summaries s
CROSS JOIN LATERAL jsonb_array_elements_text(CASE WHEN jsonb_typeof(s.entities->'key_terms') = 'array' THEN s.entities->'key_terms' ELSE '[]'::jsonb END) AS k(term)
WHERE ` + visibleSummary + `
UNION ALL
SELECT c.name AS term, 'category'::text AS kind FROM categories c`
)

// Suggestions ranks autocomplete terms drawn from protocols, key terms and
// category names by frequency, preferring shorter terms on ties. Terms of
// summaries pending review are excluded like everywhere else.
func (r *Repository) Suggestions(ctx context.Context, params domain.SuggestionParams) ([]domain.Suggestion, error) {
	if r.db == nil {
		return []domain.Suggestion{}, notConfigured("suggestions")
	}
	if params.Limit <= 0 {
		return []domain.Suggestion{}, &Error{Op: "suggestions", Kind: ErrQuery, Err: fmt.Errorf("limit must be positive, got %d", params.Limit)}
	}

	rows, err := r.query(ctx, "suggestions", r.suggestionsQuery(params))
	if err != nil {
		return []domain.Suggestion{}, err
	}

	suggestions := make([]domain.Suggestion, 0, params.Limit)
	var scanErr error
	for rows.Next() {
		var (
			s    domain.Suggestion
			kind string
		)
		if scanErr = rows.Scan(&s.Term, &kind, &s.Count); scanErr != nil {
			break
		}
		s.Type = domain.SuggestionType(kind)
		suggestions = append(suggestions, s)
	}
	if err := closeRows("suggestions", rows, scanErr); err != nil {
		return []domain.Suggestion{}, err
	}
	return suggestions, nil
}

func (r *Repository) suggestionsQuery(params domain.SuggestionParams) sq.SelectBuilder {
	pool := postgresSuggestionPool
	if r.dialect == DialectSQLite {
		pool = sqliteSuggestionPool
	}

	prefix := escapeLike(strings.ToLower(strings.TrimSpace(params.Prefix)))
	return r.sb.Select("term", "kind", "COUNT(*) AS freq").
		From("(" + pool + ") pool").
		Where(sq.Expr(r.dialect.lower("term")+likeEscape, prefix+"%")).
		Where("LENGTH(term) >= 2").
		GroupBy("term", "kind").
		OrderBy("freq DESC", "LENGTH(term) ASC", "term ASC").
		Limit(uint64(params.Limit))
}

// updateRow holds the nullable columns of one updateColumns row.
type updateRow struct {
	domain.Update
	urls       []byte
	title      sql.NullString
	summary    sql.NullString
	entities   []byte
	categoryID sql.NullInt64
	category   sql.NullString
}

func (u *updateRow) dest() []any {
	return []any{
		&u.ID, &u.Timestamp, &u.Text, &u.urls,
		&u.title, &u.summary, &u.entities, &u.categoryID, &u.category,
	}
}

func (u *updateRow) finish() (domain.Update, error) {
	update := u.Update
	update.URLs = []string{}
	if len(u.urls) > 0 {
		if err := json.Unmarshal(u.urls, &update.URLs); err != nil {
			return domain.Update{}, fmt.Errorf("decode urls of message %d: %w", u.ID, err)
		}
	}

	update.Title = u.title.String
	update.Summary = u.summary.String
	update.CategoryName = u.category.String
	if u.categoryID.Valid {
		id := u.categoryID.Int64
		update.CategoryID = &id
	}
	if len(u.entities) > 0 {
		var entities domain.Entities
		if err := json.Unmarshal(u.entities, &entities); err != nil {
			return domain.Update{}, fmt.Errorf("decode entities of message %d: %w", u.ID, err)
		}
		update.Entities = &entities
	}
	return update, nil
}
