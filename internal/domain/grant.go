package domain

import "time"

// GrantEntry is a legacy archive record addressed by slug.
type GrantEntry struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	Content     string    `json:"content"`
	SourceURL   string    `json:"sourceUrl"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"publishedAt"`
	ExternalID  string    `json:"externalId"`
}

// GrantDetail couples a grant entry with the update sharing its source URL.
type GrantDetail struct {
	Grant   GrantEntry `json:"grant"`
	Related *Update    `json:"related,omitempty"`
}
