package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundingArchive/internal/config"
	"FundingArchive/internal/domain"
)

func completion(content string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(raw)
}

func TestSummarize(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(completion("```json\n" + `{"title":" Arbitrum grants ","summary":"$2M for builders","category":"grant programs",
"entities":{"protocols":["Arbitrum", " "],"key_terms":["grants"],"amounts":["$2M"],"deadlines":[]}}` + "\n```")))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "gpt-test", APIKey: "secret"})
	summary, err := client.Summarize(context.Background(), domain.Message{
		ExternalID: "cryptofunding/42",
		Timestamp:  time.Now(),
		Text:       "Arbitrum DAO opens grants",
		URLs:       []string{"https://arbitrum.foundation/grants"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Arbitrum grants", summary.Title)
	assert.Equal(t, "$2M for builders", summary.Text)
	assert.Equal(t, "Grant Programs", summary.CategoryName)
	assert.Equal(t, []string{"Arbitrum"}, summary.Entities.Protocols)
	assert.Nil(t, summary.Entities.Deadlines)
	assert.Equal(t, "cryptofunding", summary.Entities.Source)

	assert.Equal(t, "gpt-test", got["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)["content"].(string)
	assert.True(t, strings.Contains(user, "https://arbitrum.foundation/grants"))
}

func TestSummarizeUnknownCategoryAndEmptyTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completion(`{"title":"","summary":"s","category":"Memecoins"}`)))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})
	summary, err := client.Summarize(context.Background(), domain.Message{Text: "First line\nsecond line"})
	require.NoError(t, err)
	assert.Equal(t, "First line", summary.Title)
	assert.Empty(t, summary.CategoryName)
}

func TestSummarizeErrors(t *testing.T) {
	_, err := NewChatGPTClient(config.ChatGPTConfig{}).Summarize(context.Background(), domain.Message{})
	assert.ErrorContains(t, err, "misconfigured")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})
	_, err = client.Summarize(context.Background(), domain.Message{Text: "x"})
	assert.ErrorContains(t, err, "rate limited")
}
