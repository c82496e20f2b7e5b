package storage

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// SearchCapability tells the query builder how free-text queries are matched.
type SearchCapability int32

const (
	// CapabilityAuto defers the decision to a one-time schema probe.
	CapabilityAuto SearchCapability = iota
	// CapabilitySubstring matches with case-insensitive LIKE.
	CapabilitySubstring
	// CapabilityFullText ranks with the dialect's full-text index.
	CapabilityFullText
)

// ParseCapability maps config values (auto, fulltext, substring) to a capability.
func ParseCapability(value string) (SearchCapability, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return CapabilityAuto, nil
	case "fulltext", "full-text", "fts":
		return CapabilityFullText, nil
	case "substring", "like":
		return CapabilitySubstring, nil
	default:
		return CapabilityAuto, fmt.Errorf("unknown search capability %q", value)
	}
}

func (c SearchCapability) String() string {
	switch c {
	case CapabilitySubstring:
		return "substring"
	case CapabilityFullText:
		return "fulltext"
	default:
		return "auto"
	}
}

// searchCapability returns the memoized capability, probing the schema on
// first use. Concurrent first calls may both probe; the probe is idempotent.
func (r *Repository) searchCapability(ctx context.Context) SearchCapability {
	if c := SearchCapability(r.capability.Load()); c != CapabilityAuto {
		return c
	}

	available, err := r.probe(ctx)
	if err != nil {
		r.logger.Warn("search capability probe failed, using substring match", "error", err)
		return CapabilitySubstring
	}

	c := CapabilitySubstring
	if available {
		c = CapabilityFullText
	}
	r.capability.Store(int32(c))
	r.logger.Info("search capability resolved", "capability", c.String(), "dialect", string(r.dialect))
	return c
}

func (r *Repository) probeFullText(ctx context.Context) (bool, error) {
	var b sq.SelectBuilder
	if r.dialect == DialectSQLite {
		b = r.sb.Select("COUNT(*)").
			From("sqlite_master").
			Where(sq.Eq{"type": "table", "name": "summaries_fts"})
	} else {
		b = r.sb.Select("COUNT(*)").
			From("information_schema.columns").
			Where(sq.Eq{"table_name": "summaries", "column_name": "search_vector"})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("build capability probe: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("probe full-text index: %w", err)
	}
	return n > 0, nil
}
