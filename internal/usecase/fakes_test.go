package usecase

import (
	"context"
	"errors"
	"time"

	"FundingArchive/internal/domain"
)

type fakeReader struct {
	page        domain.SearchPage
	counts      []domain.CategoryCount
	suggestions []domain.Suggestion
	err         error

	searched  []domain.SearchParams
	suggested []domain.SuggestionParams
}

func (f *fakeReader) Search(_ context.Context, params domain.SearchParams) (domain.SearchPage, error) {
	f.searched = append(f.searched, params)
	return f.page, f.err
}

func (f *fakeReader) Categories(context.Context) ([]domain.CategoryCount, error) {
	return f.counts, f.err
}

func (f *fakeReader) Suggestions(_ context.Context, params domain.SuggestionParams) ([]domain.Suggestion, error) {
	f.suggested = append(f.suggested, params)
	return f.suggestions, f.err
}

type fakeGrants struct {
	grants     map[string]domain.GrantEntry
	related    *domain.Update
	relatedErr error
	upserted   []domain.GrantEntry
	upsertErr  error
}

func (f *fakeGrants) UpsertGrant(_ context.Context, grant domain.GrantEntry) (int64, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, grant)
	return int64(len(f.upserted)), nil
}

func (f *fakeGrants) GrantBySlug(_ context.Context, slug string) (domain.GrantEntry, error) {
	grant, ok := f.grants[slug]
	if !ok {
		return domain.GrantEntry{}, domain.ErrNotFound
	}
	return grant, nil
}

func (f *fakeGrants) RecentGrants(context.Context, int) ([]domain.GrantEntry, error) {
	out := make([]domain.GrantEntry, 0, len(f.grants))
	for _, g := range f.grants {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGrants) UpdateBySourceURL(context.Context, string) (*domain.Update, error) {
	return f.related, f.relatedErr
}

type fakeSource struct {
	messages []domain.Message
	err      error
	since    time.Time
}

func (f *fakeSource) FetchSince(_ context.Context, since time.Time) ([]domain.Message, error) {
	f.since = since
	return f.messages, f.err
}

type fakeIngest struct {
	existing map[string]bool
	saved    []domain.IngestedUpdate
}

func (f *fakeIngest) AlreadyIngested(context.Context, []string) (map[string]bool, error) {
	out := map[string]bool{}
	for k, v := range f.existing {
		out[k] = v
	}
	return out, nil
}

func (f *fakeIngest) SaveIngested(_ context.Context, update domain.IngestedUpdate) (int64, error) {
	f.saved = append(f.saved, update)
	return int64(100 + len(f.saved)), nil
}

type fakeSummarizer struct {
	fail map[string]bool
}

func (f fakeSummarizer) Summarize(_ context.Context, msg domain.Message) (domain.Summary, error) {
	if f.fail[msg.ExternalID] {
		return domain.Summary{}, errors.New("model unavailable")
	}
	return domain.Summary{Title: "About " + msg.ExternalID, Text: msg.Text, CategoryName: "Grant Programs"}, nil
}

type fakeNotifier struct {
	digests []string
	err     error
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.digests = append(f.digests, digest)
	return f.err
}

type fakeReviews struct {
	pending  []domain.PendingReview
	approved []int64
}

func (f *fakeReviews) PendingReviews(context.Context, int) ([]domain.PendingReview, error) {
	return f.pending, nil
}

func (f *fakeReviews) ApproveReview(_ context.Context, id int64) error {
	if id == 404 {
		return domain.ErrNotFound
	}
	f.approved = append(f.approved, id)
	return nil
}
