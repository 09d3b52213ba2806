package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kayz/techwatch/internal/feed"
)

const arxivDefaultBaseURL = "http://export.arxiv.org/api"

// Arxiv fetches the newest papers of one category via the Atom API.
type Arxiv struct {
	name     string
	category string
	baseURL  string
	client   *client
}

func NewArxiv(name, category, baseURL string, c *client) *Arxiv {
	if baseURL == "" {
		baseURL = arxivDefaultBaseURL
	}
	return &Arxiv{name: name, category: category, baseURL: baseURL, client: c}
}

func (a *Arxiv) Name() string { return a.name }

func (a *Arxiv) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf("%s/query?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		a.baseURL, url.QueryEscape("cat:"+a.category), limit)
	body, err := a.client.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("arxiv %s: %w", a.category, err)
	}

	items, err := parseFeed(body, limit)
	if err != nil {
		return nil, fmt.Errorf("arxiv %s: parse feed: %w", a.category, err)
	}
	for i := range items {
		if items[i].Extra == nil {
			items[i].Extra = map[string]string{}
		}
		items[i].Extra["category"] = a.category
	}
	return items, nil
}
