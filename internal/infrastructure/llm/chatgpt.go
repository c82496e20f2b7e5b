package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FundingArchive/internal/config"
	"FundingArchive/internal/domain"
	"FundingArchive/internal/ports"
)

const defaultSystemPrompt = `You annotate crypto funding announcements.
Reply with one JSON object: {"title": string, "summary": string, "category": string,
"entities": {"protocols": [string], "key_terms": [string], "amounts": [string], "deadlines": [string]}}.
The category must be one of: %s. Use an empty string when none fits.`

// ChatGPTClient implements ports.Summarizer backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Summarizer = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Configured reports whether the client has everything needed to call the API.
func (c *ChatGPTClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.endpoint != "" && c.model != ""
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type annotation struct {
	Title    string          `json:"title"`
	Summary  string          `json:"summary"`
	Category string          `json:"category"`
	Entities domain.Entities `json:"entities"`
}

// Summarize asks the model for a title, summary, category and entity bag.
func (c *ChatGPTClient) Summarize(ctx context.Context, message domain.Message) (domain.Summary, error) {
	if !c.Configured() {
		return domain.Summary{}, fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": userContent(message)},
		},
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Summary{}, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Summary{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Summary{}, fmt.Errorf("chatgpt returned no choices")
	}

	var ann annotation
	if err := json.Unmarshal([]byte(stripFence(completion.Choices[0].Message.Content)), &ann); err != nil {
		return domain.Summary{}, fmt.Errorf("decode annotation: %w", err)
	}

	return toSummary(message, ann), nil
}

func toSummary(message domain.Message, ann annotation) domain.Summary {
	title := strings.TrimSpace(ann.Title)
	if title == "" {
		title = firstLine(message.Text)
	}

	entities := ann.Entities
	entities.Protocols = trimAll(entities.Protocols)
	entities.KeyTerms = trimAll(entities.KeyTerms)
	entities.Amounts = trimAll(entities.Amounts)
	entities.Deadlines = trimAll(entities.Deadlines)
	if channel, _, ok := strings.Cut(message.ExternalID, "/"); ok {
		entities.Source = channel
	}

	return domain.Summary{
		MessageID:    message.ID,
		Title:        title,
		Text:         strings.TrimSpace(ann.Summary),
		Entities:     entities,
		CategoryName: knownCategory(ann.Category),
	}
}

func knownCategory(name string) string {
	name = strings.TrimSpace(name)
	for _, known := range domain.KnownCategories {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return ""
}

func userContent(message domain.Message) string {
	var b strings.Builder
	b.WriteString(message.Text)
	if len(message.URLs) > 0 {
		b.WriteString("\n\nLinks:\n")
		b.WriteString(strings.Join(message.URLs, "\n"))
	}
	return b.String()
}

// stripFence drops a ```json fence some models wrap around the object.
func stripFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	return strings.TrimSpace(strings.TrimSuffix(content, "```"))
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if r := []rune(line); len(r) > 120 {
		line = string(r[:120])
	}
	return strings.TrimSpace(line)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Sprintf(defaultSystemPrompt, strings.Join(domain.KnownCategories, ", "))
	}
	return prompt
}
