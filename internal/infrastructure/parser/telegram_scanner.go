package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/scanner"
)

const defaultMaxPages = 5

// TelegramScanner crawls public channel preview pages (t.me/s/<channel>) and
// walks back with ?before=<post> until it passes the requested time.
type TelegramScanner struct {
	client   *http.Client
	maxPages int
}

// NewTelegramScanner wires an HTTP client; maxPages defaults to 5 per channel.
func NewTelegramScanner(client *http.Client) *TelegramScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TelegramScanner{client: client, maxPages: defaultMaxPages}
}

// Name identifies the strategy inside the registry.
func (t *TelegramScanner) Name() string {
	return "telegram"
}

// Scan returns every post published at or after req.Since, oldest first.
func (t *TelegramScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Message, error) {
	if len(req.Channels) == 0 {
		return nil, fmt.Errorf("no channels provided for source %s", req.SourceName)
	}

	maxPages := req.IntOption("maxPages", t.maxPages)

	results := make([]domain.Message, 0)

	for _, ch := range req.Channels {
		before := ""
		for page := 0; page < maxPages; page++ {
			pageURL, err := buildPageURL(ch.URL, before)
			if err != nil {
				return nil, fmt.Errorf("channel %s: %w", ch.Name, err)
			}

			doc, err := t.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("channel %s: %w", ch.Name, err)
			}

			messages, oldest := extractMessages(doc, req.Since)
			results = append(results, messages...)

			if oldest == "" || len(messages) == 0 || len(messages) < doc.Find(".tgme_widget_message").Length() {
				break
			}
			before = oldest
		}
	}

	return scanner.Merge(results), nil
}

func (t *TelegramScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "FundingArchive/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// extractMessages returns the posts newer than since and the post number of
// the oldest post on the page, used as the next ?before= value.
func extractMessages(doc *goquery.Document, since time.Time) ([]domain.Message, string) {
	var (
		collected []domain.Message
		oldest    string
		oldestNum = -1
	)

	doc.Find(".tgme_widget_message").Each(func(i int, sel *goquery.Selection) {
		msg, err := parseMessage(sel)
		if err != nil {
			return
		}

		if num := postNumber(msg.ExternalID); num >= 0 && (oldestNum < 0 || num < oldestNum) {
			oldestNum = num
			oldest = strconv.Itoa(num)
		}

		if msg.Timestamp.Before(since) {
			return
		}
		collected = append(collected, msg)
	})

	return collected, oldest
}

func parseMessage(sel *goquery.Selection) (domain.Message, error) {
	post, ok := sel.Attr("data-post")
	post = strings.TrimSpace(post)
	if !ok || post == "" {
		return domain.Message{}, fmt.Errorf("message without data-post")
	}

	datetime, _ := sel.Find(".tgme_widget_message_date time").First().Attr("datetime")
	if datetime == "" {
		datetime, _ = sel.Find("time[datetime]").First().Attr("datetime")
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(datetime))
	if err != nil {
		return domain.Message{}, fmt.Errorf("post %s: parse datetime %q: %w", post, datetime, err)
	}

	body := sel.Find(".tgme_widget_message_text").First()
	body.Find("br").ReplaceWithHtml("\n")
	text := strings.TrimSpace(body.Text())

	var (
		urls []string
		seen = map[string]struct{}{}
	)
	body.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		urls = append(urls, href)
	})

	return domain.Message{
		ExternalID: post,
		Timestamp:  ts.UTC(),
		Text:       text,
		URLs:       urls,
	}, nil
}

func postNumber(post string) int {
	idx := strings.LastIndex(post, "/")
	if idx < 0 {
		return -1
	}
	n, err := strconv.Atoi(post[idx+1:])
	if err != nil {
		return -1
	}
	return n
}

func buildPageURL(base, before string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid channel url %s: %w", base, err)
	}

	query := parsed.Query()
	if before != "" {
		query.Set("before", before)
	} else {
		query.Del("before")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
