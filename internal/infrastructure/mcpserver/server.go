package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/logging"
	"FundingArchive/internal/ports"
	"FundingArchive/internal/usecase"
)

// Tools holds the archive behind the MCP tool handlers.
type Tools struct {
	Archive ports.ArchiveReader
	Logger  *slog.Logger
}

// New creates an MCP server exposing the archive read operations.
func New(archive ports.ArchiveReader, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = logging.Discard()
	}
	t := &Tools{Archive: archive, Logger: logger}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "funding-archive",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_updates",
		Description: "Search curated crypto funding updates by text and category, newest or best match first, with cursor pagination",
	}, t.SearchUpdates)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_categories",
		Description: "List funding categories with the number of published updates in each",
	}, t.ListCategories)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "suggest_terms",
		Description: "Autocomplete protocol names, key terms and categories by prefix",
	}, t.SuggestTerms)

	return srv
}

// Handler serves the MCP server over streamable HTTP.
func Handler(srv *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
}

// --- Input types ---

type SearchUpdatesInput struct {
	Query      string   `json:"query,omitempty" jsonschema:"Free text matched against titles and summaries"`
	Categories []string `json:"categories,omitempty" jsonschema:"Category names; an update matches if it is in any of them"`
	Cursor     *int64   `json:"cursor,omitempty" jsonschema:"nextCursor from the previous page; omit for the first page"`
	Limit      *int     `json:"limit,omitempty" jsonschema:"Page size, positive; defaults to the server setting"`
}

type SuggestTermsInput struct {
	Prefix string `json:"prefix" jsonschema:"Case-insensitive prefix to complete"`
	Limit  *int   `json:"limit,omitempty" jsonschema:"Maximum number of suggestions, positive"`
}

type searchResult struct {
	domain.SearchPage
	Degraded string `json:"degraded,omitempty"`
}

type categoriesResult struct {
	Categories []domain.CategoryCount `json:"categories"`
	Degraded   string                 `json:"degraded,omitempty"`
}

type suggestionsResult struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Degraded    string              `json:"degraded,omitempty"`
}

// --- Handlers ---

func (t *Tools) SearchUpdates(ctx context.Context, _ *mcp.CallToolRequest, input SearchUpdatesInput) (*mcp.CallToolResult, any, error) {
	limit, err := limitParam(input.Limit)
	if err != nil {
		return toolError("Invalid search: %v", err), nil, nil
	}
	params := domain.SearchParams{
		Query:      input.Query,
		Categories: input.Categories,
		Cursor:     input.Cursor,
		Limit:      limit,
	}

	page, err := t.Archive.Search(ctx, params)
	if errors.Is(err, usecase.ErrInvalidParams) {
		return toolError("Invalid search: %v", err), nil, nil
	}
	return toolJSON(searchResult{SearchPage: page, Degraded: t.degraded("search_updates", err)})
}

func (t *Tools) ListCategories(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	counts, err := t.Archive.Categories(ctx)
	return toolJSON(categoriesResult{Categories: counts, Degraded: t.degraded("list_categories", err)})
}

func (t *Tools) SuggestTerms(ctx context.Context, _ *mcp.CallToolRequest, input SuggestTermsInput) (*mcp.CallToolResult, any, error) {
	limit, err := limitParam(input.Limit)
	if err != nil {
		return toolError("Invalid limit: %v", err), nil, nil
	}
	suggestions, err := t.Archive.Suggestions(ctx, domain.SuggestionParams{Prefix: input.Prefix, Limit: limit})
	if errors.Is(err, usecase.ErrInvalidParams) {
		return toolError("Invalid prefix: %v", err), nil, nil
	}
	return toolJSON(suggestionsResult{Suggestions: suggestions, Degraded: t.degraded("suggest_terms", err)})
}

// limitParam maps an omitted limit to 0, the archive default. A limit that
// is given must be positive.
func limitParam(limit *int) (int, error) {
	if limit == nil {
		return 0, nil
	}
	if *limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be positive", usecase.ErrInvalidParams)
	}
	return *limit, nil
}

func (t *Tools) degraded(tool string, err error) string {
	if err == nil {
		return ""
	}
	kind := usecase.FailureKind(err)
	t.Logger.Warn("tool degraded", "tool", tool, "kind", kind, "error", err)
	return kind
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
