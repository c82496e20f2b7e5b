package domain

import "time"

// Message is a raw announcement ingested from a channel feed.
type Message struct {
	ID         int64
	ExternalID string
	Timestamp  time.Time
	Text       string
	URLs       []string
}

// Entities is the structured bag extracted from a message by the summarizer.
type Entities struct {
	Protocols []string `json:"protocols,omitempty"`
	KeyTerms  []string `json:"key_terms,omitempty"`
	Amounts   []string `json:"amounts,omitempty"`
	Deadlines []string `json:"deadlines,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// Summary is the AI-derived annotation of exactly one message.
type Summary struct {
	ID           int64
	MessageID    int64
	Title        string
	Text         string
	Entities     Entities
	CategoryName string
}

// Category is an entry of the fixed funding taxonomy.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// KnownCategories is the taxonomy seeded by migrations.
var KnownCategories = []string{
	"Governance & Treasury",
	"Grant Programs",
	"Hackathons & Bounties",
	"Ecosystem Funds",
	"Research & Fellowships",
	"Accelerators & Incubators",
}

// ReviewStatus gates the visibility of a summary.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
)

// Update is the joined message+summary+category row served by the archive.
// Summary fields are empty when the message has not been summarized yet.
type Update struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Text         string    `json:"text"`
	URLs         []string  `json:"urls"`
	Title        string    `json:"title,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Entities     *Entities `json:"entities,omitempty"`
	CategoryID   *int64    `json:"categoryId,omitempty"`
	CategoryName string    `json:"categoryName,omitempty"`
}

// PendingReview is a summary waiting for moderation.
type PendingReview struct {
	SummaryID int64
	MessageID int64
	Title     string
	CreatedAt time.Time
}

// IngestedUpdate is what the pipeline persists for one fetched message.
type IngestedUpdate struct {
	Message Message
	Summary *Summary
	Review  ReviewStatus
}
