package pipeline

import (
	"fmt"
	"testing"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/history"
)

// markStore flags a fixed set of titles as already seen.
type markStore struct {
	seen map[string]bool
}

func (m *markStore) Classify(items []feed.Item) ([]feed.Item, []feed.Item) {
	var fresh, seen []feed.Item
	for _, it := range items {
		if m.seen[it.Title] {
			it.TimesSeen = 2
			seen = append(seen, it)
		} else {
			fresh = append(fresh, it)
		}
	}
	return fresh, seen
}

func (m *markStore) Commit([]feed.Item) error      { return nil }
func (m *markStore) Stats() (history.Stats, error) { return history.Stats{}, nil }
func (m *markStore) Close() error                  { return nil }

func collectionOf(results ...feed.FetchResult) Collection {
	col := Collection{Results: make(map[string]feed.FetchResult)}
	for _, res := range results {
		col.Order = append(col.Order, res.Source)
		col.Results[res.Source] = res
	}
	return col
}

func TestCurateDedupByURL(t *testing.T) {
	col := collectionOf(
		feed.FetchResult{Source: "hackernews", Items: []feed.Item{
			{Title: "Go 1.25 released", URL: "https://go.dev/blog/go1.25"},
		}},
		feed.FetchResult{Source: "lobsters", Items: []feed.Item{
			{Title: "Go 1.25 is out", URL: "https://go.dev/blog/go1.25"},
		}},
	)

	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})
	if len(cur.Ranked) != 1 {
		t.Fatalf("expected 1 item after URL dedup, got %d", len(cur.Ranked))
	}
	if cur.DuplicatesRemoved != 1 {
		t.Fatalf("expected 1 removed duplicate, got %d", cur.DuplicatesRemoved)
	}
	// First occurrence wins, and it keeps its source tag.
	if cur.Ranked[0].Source != "hackernews" {
		t.Fatalf("expected first occurrence kept, got source %s", cur.Ranked[0].Source)
	}
}

func TestCurateDedupByTitle(t *testing.T) {
	col := collectionOf(
		feed.FetchResult{Source: "hackernews", Items: []feed.Item{
			{Title: "  New Compiler Released  ", URL: "https://a.example/1"},
		}},
		feed.FetchResult{Source: "lobsters", Items: []feed.Item{
			{Title: "new compiler released", URL: "https://b.example/2"},
		}},
	)

	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})
	if len(cur.Ranked) != 1 {
		t.Fatalf("case and whitespace variants should collapse, got %d items", len(cur.Ranked))
	}
}

func TestCurateDedupWithoutURL(t *testing.T) {
	col := collectionOf(
		feed.FetchResult{Source: "tech_news", Items: []feed.Item{
			{Title: "Quiet launch"},
			{Title: "Quiet launch"},
		}},
	)

	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})
	if len(cur.Ranked) != 1 {
		t.Fatalf("URL-less items still dedup by title, got %d", len(cur.Ranked))
	}
}

func TestCurateFiltersPromotional(t *testing.T) {
	col := collectionOf(
		feed.FetchResult{Source: "tech_news", Items: []feed.Item{
			{Title: "Sponsored: Buy Now the best VPN", URL: "https://spam.example/1"},
			{Title: "New compiler released", URL: "https://ok.example/1"},
			{Title: "[Ad] Great discount on cloud credits", URL: "https://spam.example/2"},
		}},
	)

	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})
	if len(cur.Ranked) != 1 || cur.Ranked[0].Title != "New compiler released" {
		t.Fatalf("promo filter kept the wrong items: %+v", cur.Ranked)
	}
}

func TestCurateScoring(t *testing.T) {
	popular := feed.Item{Title: "Popular", URL: "https://x.example/p", Score: 500, Comments: 120, Description: "d"}
	quiet := feed.Item{Title: "Quiet", URL: "https://x.example/q", Score: 3, Description: "d"}
	bare := feed.Item{Title: "Bare", URL: "https://x.example/b", Score: 3}

	col := collectionOf(feed.FetchResult{Source: "hackernews", Items: []feed.Item{quiet, bare, popular}})
	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})

	if cur.Ranked[0].Title != "Popular" {
		t.Fatalf("expected Popular first, got %s", cur.Ranked[0].Title)
	}
	// Same numbers, but the missing description costs a point.
	var quietScore, bareScore float64
	for _, it := range cur.Ranked {
		switch it.Title {
		case "Quiet":
			quietScore = it.Relevance
		case "Bare":
			bareScore = it.Relevance
		}
	}
	if bareScore != quietScore-1 {
		t.Fatalf("description penalty off: quiet=%v bare=%v", quietScore, bareScore)
	}
}

func TestCurateSourceBonus(t *testing.T) {
	mk := func(source string) Collection {
		return collectionOf(feed.FetchResult{Source: source, Items: []feed.Item{
			{Title: "T " + source, URL: "https://x.example/" + source, Description: "d"},
		}})
	}
	want := map[string]float64{
		"github_trending":    4,
		"hackernews":         3,
		"lobsters":           3,
		"reddit_programming": 2,
		"tech_news":          0,
	}
	for source, bonus := range want {
		cur := NewCurator(history.NopStore{}).Curate(mk(source), Intent{MaxPerSource: 10})
		if got := cur.Ranked[0].Relevance; got != bonus {
			t.Fatalf("%s: relevance = %v, want %v", source, got, bonus)
		}
	}
}

func TestCurateRankedCap(t *testing.T) {
	items := make([]feed.Item, 120)
	for i := range items {
		items[i] = feed.Item{
			Title: fmt.Sprintf("Item %03d", i),
			URL:   fmt.Sprintf("https://x.example/%d", i),
			Score: i,
		}
	}
	col := collectionOf(feed.FetchResult{Source: "hackernews", Items: items})

	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})
	if len(cur.Ranked) != 50 {
		t.Fatalf("expected shortlist capped at 50, got %d", len(cur.Ranked))
	}
	// The cap keeps the top of the ranking, not the head of the input.
	if cur.Ranked[0].Score != 119 {
		t.Fatalf("expected highest-scored item kept, got score %d", cur.Ranked[0].Score)
	}
}

func TestCurateRecallLimit(t *testing.T) {
	seen := make(map[string]bool)
	var items []feed.Item
	for i := 0; i < 15; i++ {
		title := fmt.Sprintf("Old %02d", i)
		seen[title] = true
		items = append(items, feed.Item{Title: title, URL: fmt.Sprintf("https://x.example/o%d", i)})
	}
	items = append(items, feed.Item{Title: "Brand new", URL: "https://x.example/new"})
	col := collectionOf(feed.FetchResult{Source: "hackernews", Items: items})

	cur := NewCurator(&markStore{seen: seen}).Curate(col, Intent{MaxPerSource: 10})
	if len(cur.Recall) != 10 {
		t.Fatalf("recall must cap at 10, got %d", len(cur.Recall))
	}
	if len(cur.Fresh) != 1 || cur.Fresh[0].Title != "Brand new" {
		t.Fatalf("unexpected fresh set: %+v", cur.Fresh)
	}
}

func TestCurateStableOrderOnTies(t *testing.T) {
	col := collectionOf(feed.FetchResult{Source: "tech_news", Items: []feed.Item{
		{Title: "First", URL: "https://x.example/1", Description: "d"},
		{Title: "Second", URL: "https://x.example/2", Description: "d"},
		{Title: "Third", URL: "https://x.example/3", Description: "d"},
	}})

	cur := NewCurator(history.NopStore{}).Curate(col, Intent{MaxPerSource: 10})
	for i, want := range []string{"First", "Second", "Third"} {
		if cur.Ranked[i].Title != want {
			t.Fatalf("tie order not stable: %+v", cur.Ranked)
		}
	}
}
