package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"

	"FundingArchive/internal/logging"
	"FundingArchive/internal/ports"
)

// Repository is the relational store behind the archive, ingestion,
// review queue and legacy grant entries.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	logger  *slog.Logger

	capability atomic.Int32
	probe      func(ctx context.Context) (bool, error)
}

var (
	_ ports.ArchiveReader    = (*Repository)(nil)
	_ ports.IngestRepository = (*Repository)(nil)
	_ ports.ReviewRepository = (*Repository)(nil)
	_ ports.GrantRepository  = (*Repository)(nil)
)

// Option customizes a Repository.
type Option func(*Repository)

// WithCapability pins the search capability instead of probing the schema.
func WithCapability(c SearchCapability) Option {
	return func(r *Repository) {
		r.capability.Store(int32(c))
	}
}

// WithLogger sets the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepository wires a sql.DB implementation. A nil db yields a repository
// whose every call fails with ErrNotConfigured.
func NewRepository(db *sql.DB, dialect Dialect, opts ...Option) *Repository {
	r := &Repository{
		db:      db,
		dialect: dialect,
		sb:      dialect.builder(),
		logger:  logging.Discard(),
	}
	r.probe = r.probeFullText
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return notConfigured("ping")
	}
	return wrapErr("ping", r.db.PingContext(ctx))
}

func (r *Repository) query(ctx context.Context, op string, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrQuery, Err: err}
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return rows, nil
}

func (r *Repository) queryRow(ctx context.Context, op string, b sq.Sqlizer, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return &Error{Op: op, Kind: ErrQuery, Err: err}
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Error{Op: op, Kind: ErrNotFound, Err: err}
		}
		return wrapErr(op, err)
	}
	return nil
}

// closeRows mirrors the explicit close/iteration error checks used across the store.
func closeRows(op string, rows *sql.Rows, err error) error {
	if err != nil {
		_ = rows.Close()
		return wrapErr(op, err)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return wrapErr(op, rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return wrapErr(op, closeErr)
	}
	return nil
}
