package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundingArchive/internal/domain"
)

func TestUpsertGrantIsKeyedByExternalID(t *testing.T) {
	r := newTestRepository(t, false)
	ctx := context.Background()

	grant := domain.GrantEntry{
		Title:       "Optimism RetroPGF",
		Slug:        "optimism-retropgf",
		Category:    "Grant Programs",
		Content:     "Round 4 is open.",
		SourceURL:   "https://optimism.io/retropgf",
		Tags:        []string{"optimism", " retro ", ""},
		PublishedAt: baseTime,
		ExternalID:  "notion-1",
	}
	id, err := r.UpsertGrant(ctx, grant)
	require.NoError(t, err)

	grant.Title = "Optimism RetroPGF Round 4"
	again, err := r.UpsertGrant(ctx, grant)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err := r.GrantBySlug(ctx, "optimism-retropgf")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Optimism RetroPGF Round 4", got.Title)
	assert.Equal(t, []string{"optimism", "retro"}, got.Tags)
	assert.True(t, got.PublishedAt.Equal(baseTime))

	_, err = r.GrantBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentGrantsNewestFirst(t *testing.T) {
	r := newTestRepository(t, false)
	ctx := context.Background()

	for i, slug := range []string{"old", "new"} {
		_, err := r.UpsertGrant(ctx, domain.GrantEntry{
			Title:       slug,
			Slug:        slug,
			PublishedAt: baseTime.Add(time.Duration(i) * 24 * time.Hour),
			ExternalID:  slug,
		})
		require.NoError(t, err)
	}

	grants, err := r.RecentGrants(ctx, 0)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, "new", grants[0].Slug)
	assert.Equal(t, "old", grants[1].Slug)
}

func TestUpdateBySourceURLMatchesNormalizedURLExactly(t *testing.T) {
	r := newTestRepository(t, false)
	ctx := context.Background()

	linked := seed(t, r, seedUpdate{hour: 1, text: "a", title: "Linked", summary: "s", urls: []string{"https://www.Example.org/grants/"}})
	seed(t, r, seedUpdate{hour: 2, text: "b", title: "Near miss", summary: "s", urls: []string{"https://example.org/grants-2024"}})
	seed(t, r, seedUpdate{hour: 3, text: "c", title: "Hidden", summary: "s", urls: []string{"https://example.org/grants"}, pending: true})

	update, err := r.UpdateBySourceURL(ctx, "http://example.org/grants#apply")
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Equal(t, linked, update.ID)
	assert.Equal(t, "Linked", update.Title)

	update, err = r.UpdateBySourceURL(ctx, "https://example.org/other")
	require.NoError(t, err)
	assert.Nil(t, update)

	update, err = r.UpdateBySourceURL(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, update)
}
