package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"FundingArchive/internal/domain"
)

var (
	//go:embed schema_postgres.sql
	postgresSchema string
	//go:embed schema_postgres_fts.sql
	postgresFullText string
	//go:embed schema_sqlite.sql
	sqliteSchema string
	//go:embed schema_sqlite_fts.sql
	sqliteFullText string
)

// MigrateOptions toggles the optional parts of the schema.
type MigrateOptions struct {
	// FullText adds the search vector (Postgres) or FTS5 table (SQLite).
	FullText bool
	// SeedCategories inserts domain.KnownCategories.
	SeedCategories bool
}

// Migrate applies the idempotent schema for the dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, opts MigrateOptions) error {
	if db == nil {
		return notConfigured("migrate")
	}

	base, fullText := postgresSchema, postgresFullText
	if dialect == DialectSQLite {
		base, fullText = sqliteSchema, sqliteFullText
	}

	if _, err := db.ExecContext(ctx, base); err != nil {
		return fmt.Errorf("apply %s schema: %w", dialect, err)
	}

	if opts.FullText {
		if _, err := db.ExecContext(ctx, fullText); err != nil {
			return fmt.Errorf("apply %s full-text schema: %w", dialect, err)
		}
	}

	if opts.SeedCategories {
		if err := EnsureCategories(ctx, db, dialect, domain.KnownCategories...); err != nil {
			return err
		}
	}

	return nil
}

// EnsureCategories inserts the named categories, skipping existing ones.
func EnsureCategories(ctx context.Context, db *sql.DB, dialect Dialect, names ...string) error {
	sb := dialect.builder()
	for _, name := range names {
		query, args, err := sb.Insert("categories").
			Columns("name").
			Values(name).
			Suffix("ON CONFLICT (name) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("build category insert: %w", err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert category %s: %w", name, err)
		}
	}
	return nil
}
