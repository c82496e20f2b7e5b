package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FundingArchive/internal/domain"
)

var baseTime = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T, fullText bool, opts ...Option) *Repository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.db")
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db, DialectSQLite, MigrateOptions{FullText: fullText}))
	return NewRepository(db, DialectSQLite, opts...)
}

type seedUpdate struct {
	hour     int
	text     string
	urls     []string
	title    string
	summary  string
	category string
	entities domain.Entities
	pending  bool
	bare     bool
}

func seed(t *testing.T, r *Repository, s seedUpdate) int64 {
	t.Helper()

	msg := domain.Message{
		ExternalID: fmt.Sprintf("post-%d-%s-%s", s.hour, s.text, s.title),
		Timestamp:  baseTime.Add(time.Duration(s.hour) * time.Hour),
		Text:       s.text,
		URLs:       s.urls,
	}
	update := domain.IngestedUpdate{Message: msg, Review: domain.ReviewApproved}
	if !s.bare {
		update.Summary = &domain.Summary{
			Title:        s.title,
			Text:         s.summary,
			Entities:     s.entities,
			CategoryName: s.category,
		}
	}
	if s.pending {
		update.Review = domain.ReviewPending
	}

	id, err := r.SaveIngested(context.Background(), update)
	require.NoError(t, err)
	return id
}

func ids(updates []domain.Update) []int64 {
	out := make([]int64, len(updates))
	for i, u := range updates {
		out[i] = u.ID
	}
	return out
}

func int64Ptr(v int64) *int64 {
	return &v
}
