package sources

import (
	"context"
	"fmt"

	"github.com/kayz/techwatch/internal/feed"
)

const producthuntDefaultFeedURL = "https://www.producthunt.com/feed"

// ProductHunt reads the public Atom feed; the site itself is JS-rendered and
// not worth scraping.
type ProductHunt struct {
	name    string
	feedURL string
	client  *client
}

func NewProductHunt(feedURL string, c *client) *ProductHunt {
	if feedURL == "" {
		feedURL = producthuntDefaultFeedURL
	}
	return &ProductHunt{name: "producthunt", feedURL: feedURL, client: c}
}

func (p *ProductHunt) Name() string { return p.name }

func (p *ProductHunt) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	body, err := p.client.get(ctx, p.feedURL)
	if err != nil {
		return nil, fmt.Errorf("producthunt: %w", err)
	}

	items, err := parseFeed(body, limit)
	if err != nil {
		return nil, fmt.Errorf("producthunt: parse feed: %w", err)
	}
	return items, nil
}
