package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/logging"
	"FundingArchive/internal/ports"
)

// GrantRecord is one entry of a legacy grants YAML export.
type GrantRecord struct {
	Title       string    `yaml:"title"`
	Slug        string    `yaml:"slug"`
	Category    string    `yaml:"category"`
	Content     string    `yaml:"content"`
	SourceURL   string    `yaml:"sourceUrl"`
	Tags        []string  `yaml:"tags"`
	PublishedAt time.Time `yaml:"publishedAt"`
	ExternalID  string    `yaml:"externalId"`
}

type grantFile struct {
	Grants []GrantRecord `yaml:"grants"`
}

// GrantImporter upserts legacy grant entries.
type GrantImporter struct {
	repo   ports.GrantRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewGrantImporter wires the grant store.
func NewGrantImporter(repo ports.GrantRepository, logger *slog.Logger) *GrantImporter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GrantImporter{repo: repo, now: time.Now, logger: logger}
}

// ImportYAML reads a `grants:` list and upserts every entry. Slugs default to
// the slugified title and external ids to the slug.
func (g *GrantImporter) ImportYAML(ctx context.Context, r io.Reader) (int, error) {
	if g.repo == nil {
		return 0, domain.ErrNotConfigured
	}

	var file grantFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w: decode grants: %v", ErrInvalidParams, err)
	}

	imported := 0
	for i, rec := range file.Grants {
		entry, err := g.toEntry(rec)
		if err != nil {
			return imported, fmt.Errorf("%w: grant #%d: %v", ErrInvalidParams, i+1, err)
		}
		if _, err := g.repo.UpsertGrant(ctx, entry); err != nil {
			return imported, fmt.Errorf("upsert grant %s: %w", entry.Slug, err)
		}
		imported++
	}

	g.logger.Info("grants imported", "count", imported)
	return imported, nil
}

func (g *GrantImporter) toEntry(rec GrantRecord) (domain.GrantEntry, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return domain.GrantEntry{}, fmt.Errorf("title is required")
	}

	slug := Slugify(rec.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return domain.GrantEntry{}, fmt.Errorf("cannot derive slug from %q", title)
	}

	externalID := strings.TrimSpace(rec.ExternalID)
	if externalID == "" {
		externalID = slug
	}

	published := rec.PublishedAt
	if published.IsZero() {
		published = g.now()
	}

	return domain.GrantEntry{
		Title:       title,
		Slug:        slug,
		Category:    strings.TrimSpace(rec.Category),
		Content:     strings.TrimSpace(rec.Content),
		SourceURL:   strings.TrimSpace(rec.SourceURL),
		Tags:        rec.Tags,
		PublishedAt: published.UTC(),
		ExternalID:  externalID,
	}, nil
}

// Slugify lowercases letters and digits and joins the runs between them with dashes.
func Slugify(value string) string {
	var (
		b       strings.Builder
		pending bool
	)
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
