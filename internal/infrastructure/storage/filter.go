package storage

import (
	"strings"
	"unicode"

	sq "github.com/Masterminds/squirrel"

	"FundingArchive/internal/domain"
)

// visibleSummary hides summaries waiting for moderation. Rows without a
// summary (s.id IS NULL) stay visible.
const visibleSummary = "NOT EXISTS (SELECT 1 FROM summary_reviews r WHERE r.summary_id = s.id AND r.status = 'pending')"

const (
	postgresMatch = "s.search_vector @@ websearch_to_tsquery('english', ?)"
	postgresRank  = "ts_rank(s.search_vector, websearch_to_tsquery('english', ?))"
	sqliteMatch   = "JOIN (SELECT rowid AS summary_id, -bm25(summaries_fts, 10.0, 1.0) AS fts_score FROM summaries_fts WHERE summaries_fts MATCH ?) fts ON fts.summary_id = s.id"
	sqliteRank    = "fts.fts_score"
	likeEscape    = ` LIKE ? ESCAPE '\'`
)

// searchFilter is the predicate shared by the page and count queries. Every
// fragment carries its own bound values, so placeholders are numbered once
// by the builder no matter which filters are present.
type searchFilter struct {
	joins  []sq.Sqlizer
	where  sq.And
	cursor sq.Sqlizer
	rank   sq.Sqlizer
}

func newSearchFilter(dialect Dialect, capability SearchCapability, params domain.SearchParams) searchFilter {
	f := searchFilter{where: sq.And{sq.Expr(visibleSummary)}}

	if query := strings.TrimSpace(params.Query); query != "" {
		if capability != CapabilityFullText || !f.addFullText(dialect, query) {
			f.addSubstring(dialect, query)
		}
	}

	if categories := cleanNames(params.Categories); len(categories) > 0 {
		f.where = append(f.where, sq.Eq{"c.name": categories})
	}

	if params.Cursor != nil {
		f.cursor = sq.Lt{"m.id": *params.Cursor}
	}

	return f
}

func (f *searchFilter) addFullText(dialect Dialect, query string) bool {
	if dialect == DialectSQLite {
		match := ftsMatchExpression(query)
		if match == "" {
			return false
		}
		f.joins = append(f.joins, sq.Expr(sqliteMatch, match))
		f.rank = sq.Expr(sqliteRank)
		return true
	}

	f.where = append(f.where, sq.Expr(postgresMatch, query))
	f.rank = sq.Expr(postgresRank, query)
	return true
}

func (f *searchFilter) addSubstring(dialect Dialect, query string) {
	f.where = append(f.where, sq.Expr(dialect.lower("COALESCE(s.summary, m.text)")+likeEscape, "%"+escapeLike(strings.ToLower(query))+"%"))
}

// apply attaches joins and predicates; the count query skips the cursor.
func (f searchFilter) apply(b sq.SelectBuilder, withCursor bool) sq.SelectBuilder {
	for _, join := range f.joins {
		b = b.JoinClause(join)
	}

	where := append(sq.And{}, f.where...)
	if withCursor && f.cursor != nil {
		where = append(where, f.cursor)
	}
	return b.Where(where)
}

func (f searchFilter) ranked() bool {
	return f.rank != nil
}

// ftsMatchExpression quotes every word so user input cannot inject FTS5
// operators; quoted terms are ANDed.
func ftsMatchExpression(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	return strings.Join(quoted, " ")
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
