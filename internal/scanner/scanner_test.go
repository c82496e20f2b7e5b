package scanner

import (
	"context"
	"strings"
	"testing"
	"time"

	"FundingArchive/internal/domain"
)

type stubScanner struct{ name string }

func (s stubScanner) Name() string { return s.name }

func (s stubScanner) Scan(context.Context, Request) ([]domain.Message, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubScanner{name: "telegram"})

	got, err := reg.Resolve("telegram")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Name() != "telegram" {
		t.Fatalf("unexpected scanner: %s", got.Name())
	}

	if _, err := reg.Resolve("rss"); err == nil {
		t.Fatalf("expected error for unregistered scanner")
	}

	var zero Registry
	zero.Register(stubScanner{name: "late"})
	if _, err := zero.Resolve("late"); err != nil {
		t.Fatalf("zero registry should accept registrations: %v", err)
	}
}

func TestRegistryIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubScanner{name: "Telegram"})
	reg.Register(stubScanner{name: "rss"})

	if _, err := reg.Resolve(" TELEGRAM "); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if names := reg.Names(); len(names) != 2 || names[0] != "rss" || names[1] != "telegram" {
		t.Fatalf("unexpected names: %v", names)
	}

	_, err := reg.Resolve("notion")
	if err == nil || !strings.Contains(err.Error(), "known: rss, telegram") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestIntOption(t *testing.T) {
	t.Parallel()

	req := Request{Options: map[string]string{"maxPages": " 3 ", "bad": "x", "neg": "-2"}}
	for key, want := range map[string]int{"maxPages": 3, "bad": 5, "neg": 5, "missing": 5} {
		if got := req.IntOption(key, 5); got != want {
			t.Fatalf("IntOption(%s) = %d, want %d", key, got, want)
		}
	}
}

func TestMergeDedupesAndSortsOldestFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	got := Merge([]domain.Message{
		{ExternalID: "a/2", Timestamp: base.Add(3 * time.Hour), Text: "first a/2"},
		{ExternalID: "a/1", Timestamp: base.Add(time.Hour)},
		{ExternalID: "b/7", Timestamp: base.Add(2 * time.Hour)},
		{ExternalID: "a/2", Timestamp: base.Add(3 * time.Hour), Text: "repeat"},
		{ExternalID: "b/6", Timestamp: base.Add(time.Hour)},
	})

	var order []string
	for _, m := range got {
		order = append(order, m.ExternalID)
	}
	if strings.Join(order, " ") != "a/1 b/6 b/7 a/2" {
		t.Fatalf("unexpected order: %v", order)
	}
	if got[3].Text != "first a/2" {
		t.Fatalf("first occurrence should win, got %q", got[3].Text)
	}
}
