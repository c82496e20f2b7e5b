package scanner

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"FundingArchive/internal/domain"
)

// Channel is one announcement feed a source reads, e.g. a t.me/s/ preview page.
type Channel struct {
	Name string
	URL  string
}

// Request asks a strategy for every post published at or after Since.
type Request struct {
	Since      time.Time
	SourceName string
	Channels   []Channel
	Options    map[string]string
}

// IntOption reads a positive integer option, falling back when it is
// missing or malformed.
func (r Request) IntOption(key string, fallback int) int {
	raw := strings.TrimSpace(r.Options[key])
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Scanner is one way of pulling funding announcements from upstream.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Message, error)
}

// Merge drops repeated external ids (first occurrence wins) and orders the
// batch oldest first. Messages are persisted in this order, so ids grow with
// publication time across every source of one run.
func Merge(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		if _, ok := seen[msg.ExternalID]; ok {
			continue
		}
		seen[msg.ExternalID] = struct{}{}
		out = append(out, msg)
	}

	slices.SortStableFunc(out, func(a, b domain.Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ExternalID, b.ExternalID)
	})
	return out
}

// Registry maps scanner names from the sources config to implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[strings.ToLower(scanner.Name())] = scanner
}

// Names lists registered scanners in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve looks a scanner up by its case-insensitive name.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[strings.ToLower(strings.TrimSpace(name))]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %q is not registered (known: %s)", name, strings.Join(r.Names(), ", "))
}
