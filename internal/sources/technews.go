package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kayz/techwatch/internal/feed"
)

// A feed contributes at most this many articles regardless of the request
// limit, so one chatty site cannot crowd out the rest.
const technewsPerFeedCap = 5

type newsFeed struct {
	Name string
	URL  string
}

var defaultNewsFeeds = []newsFeed{
	{"TechCrunch", "https://techcrunch.com/feed/"},
	{"Ars Technica", "https://feeds.arstechnica.com/arstechnica/technology-lab"},
	{"The Verge", "https://www.theverge.com/rss/index.xml"},
	{"Wired", "https://www.wired.com/feed/rss"},
	{"ZDNet", "https://www.zdnet.com/news/rss.xml"},
}

// TechNews aggregates a fixed list of RSS feeds from major outlets.
type TechNews struct {
	name   string
	feeds  []newsFeed
	client *client
}

func NewTechNews(feeds []newsFeed, c *client) *TechNews {
	if len(feeds) == 0 {
		feeds = defaultNewsFeeds
	}
	return &TechNews{name: "tech_news", feeds: feeds, client: c}
}

func (t *TechNews) Name() string { return t.name }

func (t *TechNews) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = technewsPerFeedCap * len(t.feeds)
	}

	type feedResult struct {
		items []feed.Item
		err   error
		name  string
	}
	results := make([]feedResult, len(t.feeds))

	var wg sync.WaitGroup
	for i, nf := range t.feeds {
		wg.Add(1)
		go func(i int, nf newsFeed) {
			defer wg.Done()
			body, err := t.client.get(ctx, nf.URL)
			if err != nil {
				results[i] = feedResult{err: err, name: nf.Name}
				return
			}
			items, err := parseFeed(body, technewsPerFeedCap)
			for j := range items {
				if items[j].Extra == nil {
					items[j].Extra = map[string]string{}
				}
				items[j].Extra["outlet"] = nf.Name
			}
			results[i] = feedResult{items: items, err: err, name: nf.Name}
		}(i, nf)
	}
	wg.Wait()

	var items []feed.Item
	var failed []string
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r.name)
			continue
		}
		items = append(items, r.items...)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	// Partial feed failures are fine, only a full miss is an error.
	if len(items) == 0 && len(failed) > 0 {
		return nil, fmt.Errorf("tech_news: all feeds failed (%s)", strings.Join(failed, ", "))
	}
	return items, nil
}
