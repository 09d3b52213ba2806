package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

const hnDefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// HackerNews fetches top stories from the official Firebase API.
type HackerNews struct {
	name    string
	baseURL string
	client  *client
}

func NewHackerNews(baseURL string, c *client) *HackerNews {
	if baseURL == "" {
		baseURL = hnDefaultBaseURL
	}
	return &HackerNews{name: "hackernews", baseURL: baseURL, client: c}
}

func (h *HackerNews) Name() string { return h.name }

func (h *HackerNews) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 15
	}

	body, err := h.client.get(ctx, h.baseURL+"/topstories.json")
	if err != nil {
		return nil, fmt.Errorf("hackernews: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("hackernews: parse story ids: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	// Detail fetches are independent, fan out and keep ranking order.
	items := make([]*feed.Item, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			items[i] = h.fetchStory(ctx, id)
		}(i, id)
	}
	wg.Wait()

	out := make([]feed.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (h *HackerNews) fetchStory(ctx context.Context, id int64) *feed.Item {
	body, err := h.client.get(ctx, fmt.Sprintf("%s/item/%d.json", h.baseURL, id))
	if err != nil {
		return nil
	}

	var story struct {
		ID          int64  `json:"id"`
		Type        string `json:"type"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Score       int    `json:"score"`
		Descendants int    `json:"descendants"`
		By          string `json:"by"`
		Time        int64  `json:"time"`
	}
	if err := json.Unmarshal(body, &story); err != nil || story.Type != "story" {
		return nil
	}

	hnURL := fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
	url := story.URL
	if url == "" {
		url = hnURL
	}

	return &feed.Item{
		Title:       cleanText(story.Title),
		URL:         url,
		Score:       story.Score,
		Comments:    story.Descendants,
		Author:      story.By,
		PublishedAt: time.Unix(story.Time, 0),
		Extra:       map[string]string{"hn_url": hnURL},
	}
}
