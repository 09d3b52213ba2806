package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

const lobstersDefaultBaseURL = "https://lobste.rs"

// Lobsters fetches the hottest stories from the public JSON endpoint.
type Lobsters struct {
	name    string
	baseURL string
	client  *client
}

func NewLobsters(baseURL string, c *client) *Lobsters {
	if baseURL == "" {
		baseURL = lobstersDefaultBaseURL
	}
	return &Lobsters{name: "lobsters", baseURL: baseURL, client: c}
}

func (l *Lobsters) Name() string { return l.name }

func (l *Lobsters) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 15
	}

	body, err := l.client.get(ctx, l.baseURL+"/hottest.json")
	if err != nil {
		return nil, fmt.Errorf("lobsters: %w", err)
	}

	var posts []struct {
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		ShortIDURL    string   `json:"short_id_url"`
		Score         int      `json:"score"`
		CommentCount  int      `json:"comment_count"`
		Tags          []string `json:"tags"`
		CreatedAt     string   `json:"created_at"`
		SubmitterUser string   `json:"submitter_user"`
	}
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("lobsters: parse response: %w", err)
	}

	items := make([]feed.Item, 0, limit)
	for _, p := range posts {
		if len(items) >= limit {
			break
		}
		url := p.URL
		if url == "" {
			url = p.ShortIDURL
		}
		it := feed.Item{
			Title:    cleanText(p.Title),
			URL:      url,
			Score:    p.Score,
			Comments: p.CommentCount,
			Author:   p.SubmitterUser,
			Extra:    map[string]string{"lobsters_url": p.ShortIDURL},
		}
		if len(p.Tags) > 0 {
			it.Extra["tags"] = strings.Join(p.Tags, ",")
		}
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			it.PublishedAt = t
		}
		items = append(items, it)
	}
	return items, nil
}
