package pipeline

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/history"
	"github.com/kayz/techwatch/internal/logger"
)

// Curator turns the raw collection into a ranked, deduplicated shortlist and
// splits it into fresh items and recalled repeats.
type Curator struct {
	store history.Store
}

func NewCurator(store history.Store) *Curator {
	if store == nil {
		store = history.NopStore{}
	}
	return &Curator{store: store}
}

const (
	// rankedCapFactor bounds the shortlist relative to the per-source limit.
	rankedCapFactor = 5
	recallLimit     = 10
	titleHashPrefix = 50
)

// promoMarkers are lower-cased substrings that mark promotional content.
var promoMarkers = []string{
	"sponsored",
	"ad:",
	"[ad]",
	"promotion",
	"buy now",
	"discount",
	"coupon",
	"deal:",
	"sale:",
}

// Curate runs the stages in a fixed order: flatten, dedup, promo filter,
// score, sort, cap, then split against history.
func (c *Curator) Curate(col Collection, intent Intent) Curation {
	flat := flatten(col)
	deduped, removed := dedupe(flat)
	kept := dropPromotional(deduped)

	for i := range kept {
		kept[i].Relevance = scoreItem(kept[i])
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Relevance > kept[j].Relevance
	})

	maxPer := intent.MaxPerSource
	if maxPer <= 0 {
		maxPer = 10
	}
	if limit := rankedCapFactor * maxPer; len(kept) > limit {
		kept = kept[:limit]
	}

	fresh, seen := c.store.Classify(kept)
	if len(seen) > recallLimit {
		seen = seen[:recallLimit]
	}

	logger.Info("curation done",
		"collected", len(flat),
		"duplicates", removed,
		"ranked", len(kept),
		"fresh", len(fresh),
		"recall", len(seen))
	return Curation{
		Ranked:            kept,
		Fresh:             fresh,
		Recall:            seen,
		DuplicatesRemoved: removed,
	}
}

// flatten concatenates per-source results in request order and stamps each
// item with its source id.
func flatten(col Collection) []feed.Item {
	var out []feed.Item
	for _, id := range col.Order {
		res, ok := col.Results[id]
		if !ok {
			continue
		}
		for _, it := range res.Items {
			it.Source = id
			out = append(out, it)
		}
	}
	return out
}

// titleHash fingerprints a title by its normalized leading characters so
// near-identical headlines from different sources collapse together.
func titleHash(title string) string {
	norm := strings.ToLower(strings.TrimSpace(title))
	runes := []rune(norm)
	if len(runes) > titleHashPrefix {
		norm = string(runes[:titleHashPrefix])
	}
	sum := md5.Sum([]byte(norm))
	return fmt.Sprintf("%x", sum)[:8]
}

// dedupe removes repeated items, first occurrence wins. An item is a repeat
// when its URL was already seen or its title fingerprint was.
func dedupe(items []feed.Item) ([]feed.Item, int) {
	seenURL := make(map[string]struct{})
	seenTitle := make(map[string]struct{})
	out := make([]feed.Item, 0, len(items))
	removed := 0
	for _, it := range items {
		th := titleHash(it.Title)
		dup := false
		if it.URL != "" {
			if _, ok := seenURL[it.URL]; ok {
				dup = true
			}
		}
		if !dup {
			if _, ok := seenTitle[th]; ok {
				dup = true
			}
		}
		if dup {
			removed++
			continue
		}
		if it.URL != "" {
			seenURL[it.URL] = struct{}{}
		}
		seenTitle[th] = struct{}{}
		out = append(out, it)
	}
	return out, removed
}

func dropPromotional(items []feed.Item) []feed.Item {
	out := make([]feed.Item, 0, len(items))
	for _, it := range items {
		if isPromotional(it.Title) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func isPromotional(title string) bool {
	t := strings.ToLower(title)
	for _, marker := range promoMarkers {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

// scoreItem weighs community signal, source reputation and completeness.
func scoreItem(it feed.Item) float64 {
	score := min(float64(it.Score)/100, 10)
	score += min(float64(it.Comments)/50, 5)
	score += sourceBonus(it.Source)
	if !it.HasDescription() {
		score--
	}
	return score
}

func sourceBonus(source string) float64 {
	switch {
	case source == "github_trending":
		return 4
	case source == "hackernews" || source == "lobsters":
		return 3
	case strings.HasPrefix(source, "reddit_"):
		return 2
	}
	return 0
}
