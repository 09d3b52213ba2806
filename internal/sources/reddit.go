package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

const redditDefaultBaseURL = "https://www.reddit.com"

// Reddit fetches hot posts of one subreddit via the public JSON listing.
// Every subreddit is registered as its own source id (reddit_programming,
// reddit_ml, ...) so the planner can pick them independently.
type Reddit struct {
	name      string
	subreddit string
	baseURL   string
	client    *client
}

func NewReddit(name, subreddit, baseURL string, c *client) *Reddit {
	if baseURL == "" {
		baseURL = redditDefaultBaseURL
	}
	return &Reddit{name: name, subreddit: subreddit, baseURL: baseURL, client: c}
}

func (r *Reddit) Name() string { return r.name }

func (r *Reddit) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}
	tf := periodToRedditFilter(req.Period)

	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d&t=%s", r.baseURL, r.subreddit, limit, tf)
	body, err := r.client.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("reddit r/%s: %w", r.subreddit, err)
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					URL         string  `json:"url"`
					Permalink   string  `json:"permalink"`
					Score       int     `json:"score"`
					NumComments int     `json:"num_comments"`
					CreatedUTC  float64 `json:"created_utc"`
					Author      string  `json:"author"`
					Selftext    string  `json:"selftext"`
					IsSelf      bool    `json:"is_self"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit r/%s: parse listing: %w", r.subreddit, err)
	}

	items := make([]feed.Item, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		it := feed.Item{
			Title:       cleanText(p.Title),
			URL:         p.URL,
			Description: truncate(cleanText(p.Selftext), 500),
			Score:       p.Score,
			Comments:    p.NumComments,
			Author:      p.Author,
			PublishedAt: time.Unix(int64(p.CreatedUTC), 0),
			Extra: map[string]string{
				"subreddit": r.subreddit,
				"permalink": "https://reddit.com" + p.Permalink,
			},
		}
		if p.IsSelf {
			it.Extra["is_self"] = "true"
		}
		items = append(items, it)
	}
	return items, nil
}

func periodToRedditFilter(period string) string {
	switch period {
	case "today":
		return "day"
	case "month":
		return "month"
	default:
		return "week"
	}
}
