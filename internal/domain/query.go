package domain

// SearchParams narrows the archive listing. Zero values mean "no filter".
type SearchParams struct {
	Query      string
	Categories []string
	Cursor     *int64
	Limit      int
}

// SearchPage is one page of updates plus the cursor for the next one.
type SearchPage struct {
	Items      []Update `json:"items"`
	NextCursor *int64   `json:"nextCursor"`
	Total      int      `json:"total"`
}

// CategoryCount reports how many visible summaries reference a category.
type CategoryCount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SuggestionType tells which pool an autocomplete term came from.
type SuggestionType string

const (
	SuggestionProtocol SuggestionType = "protocol"
	SuggestionKeyTerm  SuggestionType = "key_term"
	SuggestionCategory SuggestionType = "category"
)

// SuggestionParams drives autocomplete.
type SuggestionParams struct {
	Prefix string
	Limit  int
}

// Suggestion is an autocomplete candidate with its frequency.
type Suggestion struct {
	Term  string         `json:"term"`
	Type  SuggestionType `json:"type"`
	Count int            `json:"count"`
}
