package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundingArchive/internal/domain"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Optimism RetroPGF: Round 4!": "optimism-retropgf-round-4",
		"  Gitcoin   GG20 ":            "gitcoin-gg20",
		"Über Grants":                  "über-grants",
		"***":                          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestImportYAML(t *testing.T) {
	repo := &fakeGrants{}
	importer := NewGrantImporter(repo, nil)
	fixed := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	importer.now = func() time.Time { return fixed }

	doc := `
grants:
  - title: Optimism RetroPGF
    category: Grant Programs
    sourceUrl: https://optimism.io/retropgf
    tags: [optimism, retro]
    publishedAt: 2024-05-01T00:00:00Z
  - title: Arbitrum Questbook
    slug: Custom Slug
    externalId: notion-77
`
	n, err := importer.ImportYAML(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, repo.upserted, 2)

	first := repo.upserted[0]
	assert.Equal(t, "optimism-retropgf", first.Slug)
	assert.Equal(t, "optimism-retropgf", first.ExternalID)
	assert.Equal(t, []string{"optimism", "retro"}, first.Tags)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))

	second := repo.upserted[1]
	assert.Equal(t, "custom-slug", second.Slug)
	assert.Equal(t, "notion-77", second.ExternalID)
	assert.True(t, second.PublishedAt.Equal(fixed))
}

func TestImportYAMLRejectsEntriesWithoutTitle(t *testing.T) {
	repo := &fakeGrants{}
	n, err := NewGrantImporter(repo, nil).ImportYAML(context.Background(), strings.NewReader("grants:\n  - title: ok\n  - content: no title\n"))
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, 1, n)

	_, err = NewGrantImporter(repo, nil).ImportYAML(context.Background(), strings.NewReader("grants: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalidParams)

	repo.upsertErr = domain.ErrTransient
	_, err = NewGrantImporter(repo, nil).ImportYAML(context.Background(), strings.NewReader("grants:\n  - title: ok\n"))
	assert.ErrorIs(t, err, domain.ErrTransient)
}
