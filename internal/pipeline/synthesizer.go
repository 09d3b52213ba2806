package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/llm"
	"github.com/kayz/techwatch/internal/logger"
)

// Category buckets shortlisted items for the digest.
type Category string

const (
	CategoryTools    Category = "tools"
	CategoryArticles Category = "articles"
	CategoryAIData   Category = "ai_data"
	CategoryVideos   Category = "videos"
)

// categoryOrder fixes the section order in prompts and fallback digests.
var categoryOrder = []Category{CategoryTools, CategoryArticles, CategoryAIData, CategoryVideos}

var categoryTitles = map[Category]string{
	CategoryTools:    "Tools & Projects",
	CategoryArticles: "Articles & Discussions",
	CategoryAIData:   "AI & Data",
	CategoryVideos:   "Videos",
}

var sourceCategories = map[string]Category{
	"github_trending":    CategoryTools,
	"producthunt":        CategoryTools,
	"hackernews":         CategoryArticles,
	"lobsters":           CategoryArticles,
	"tech_news":          CategoryArticles,
	"reddit_programming": CategoryArticles,
	"reddit_webdev":      CategoryArticles,
	"reddit_devops":      CategoryArticles,
	"reddit_selfhosted":  CategoryArticles,
	"reddit_netsec":      CategoryArticles,
	"reddit_ml":          CategoryAIData,
	"reddit_llm":         CategoryAIData,
	"arxiv_ai":           CategoryAIData,
}

func categoryFor(source string) Category {
	if c, ok := sourceCategories[source]; ok {
		return c
	}
	return CategoryArticles
}

const (
	promptItemsPerCategory = 15
	maxReportedErrors      = 5
)

// fallbackCaps limits each section of the template digest.
var fallbackCaps = map[Category]int{
	CategoryTools:    8,
	CategoryArticles: 10,
	CategoryAIData:   5,
	CategoryVideos:   3,
}

// Synthesizer writes the digest, through the provider chain when possible
// and through a deterministic template otherwise.
type Synthesizer struct {
	chain *llm.Chain
}

func NewSynthesizer(chain *llm.Chain) *Synthesizer {
	return &Synthesizer{chain: chain}
}

// Synthesize produces the digest for a finished curation. It never fails:
// when every provider is down it renders the template digest instead.
func (s *Synthesizer) Synthesize(ctx context.Context, intent Intent, cur Curation, errs []string) Synthesis {
	byCat := categorize(cur.Fresh)
	counts := make(map[Category]int, len(byCat))
	for cat, items := range byCat {
		counts[cat] = len(items)
	}

	if len(cur.Ranked) == 0 {
		return Synthesis{
			Digest:         noDataDigest(intent, errs),
			Degraded:       true,
			CategoryCounts: counts,
		}
	}

	system := synthSystemPrompt
	user := buildUserPrompt(intent, byCat, cur.Recall, errs)

	if s.chain != nil {
		text, provider, err := s.chain.Generate(ctx, system, user)
		if err == nil {
			logger.Info("digest generated", "provider", provider)
			return Synthesis{
				Digest:         text,
				Provider:       provider,
				CategoryCounts: counts,
			}
		}
		logger.Warn("all providers failed, rendering fallback digest", "error", err)
	}

	return Synthesis{
		Digest:         fallbackDigest(intent, byCat, cur.Recall, errs),
		Degraded:       true,
		CategoryCounts: counts,
	}
}

const synthSystemPrompt = `You are a tech watch editor. You write concise, well-structured daily digests in Markdown.
Group items under the section headings given, keep each entry to one or two lines with its link, and never invent items that are not in the input.`

func categorize(items []feed.Item) map[Category][]feed.Item {
	out := make(map[Category][]feed.Item)
	for _, it := range items {
		cat := categoryFor(it.Source)
		out[cat] = append(out[cat], it)
	}
	return out
}

func buildUserPrompt(intent Intent, byCat map[Category][]feed.Item, recall []feed.Item, errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a tech watch digest.\nQuery: %s\nFocus: %s\nPeriod: %s\n", intent.Query, intent.Focus, intent.Period)

	for _, cat := range categoryOrder {
		items := byCat[cat]
		if len(items) == 0 {
			continue
		}
		if len(items) > promptItemsPerCategory {
			items = items[:promptItemsPerCategory]
		}
		fmt.Fprintf(&b, "\n## %s\n", categoryTitles[cat])
		for _, it := range items {
			writeItemLine(&b, it)
		}
	}

	if len(recall) > 0 {
		b.WriteString("\n## Still making the rounds\n")
		for _, it := range recall {
			fmt.Fprintf(&b, "- %s (%s, seen %d times)\n", it.Title, it.URL, it.TimesSeen)
		}
	}

	if note := errorNote(errs); note != "" {
		b.WriteString("\n")
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}

func writeItemLine(b *strings.Builder, it feed.Item) {
	fmt.Fprintf(b, "- %s (%s)", it.Title, it.URL)
	if it.Score > 0 {
		fmt.Fprintf(b, " [%d points", it.Score)
		if it.Comments > 0 {
			fmt.Fprintf(b, ", %d comments", it.Comments)
		}
		b.WriteString("]")
	}
	if it.Description != "" {
		fmt.Fprintf(b, ": %s", it.Description)
	}
	b.WriteString("\n")
}

// errorNote summarizes collection failures, deduplicated and capped at
// maxReportedErrors distinct messages.
func errorNote(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(errs))
	shown := make([]string, 0, len(errs))
	for _, e := range errs {
		if seen[e] {
			continue
		}
		seen[e] = true
		shown = append(shown, e)
	}
	extra := 0
	if len(shown) > maxReportedErrors {
		extra = len(shown) - maxReportedErrors
		shown = shown[:maxReportedErrors]
	}
	note := "Note: some sources were unavailable: " + strings.Join(shown, "; ")
	if extra > 0 {
		note += fmt.Sprintf(" (and %d more)", extra)
	}
	return note
}

// fallbackDigest is the degraded mode renderer used when no provider answers.
func fallbackDigest(intent Intent, byCat map[Category][]feed.Item, recall []feed.Item, errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tech Watch Digest (degraded mode)\n\nFocus: %s | Period: %s\n", intent.Focus, intent.Period)

	for _, cat := range categoryOrder {
		items := byCat[cat]
		if len(items) == 0 {
			continue
		}
		if limit := fallbackCaps[cat]; len(items) > limit {
			items = items[:limit]
		}
		fmt.Fprintf(&b, "\n## %s\n\n", categoryTitles[cat])
		for _, it := range items {
			fmt.Fprintf(&b, "- [%s](%s)", it.Title, it.URL)
			if it.Score > 0 {
				fmt.Fprintf(&b, " · %d points", it.Score)
			}
			b.WriteString("\n")
		}
	}

	if len(recall) > 0 {
		b.WriteString("\n## Still making the rounds\n\n")
		for _, it := range recall {
			fmt.Fprintf(&b, "- [%s](%s) · seen %d times\n", it.Title, it.URL, it.TimesSeen)
		}
	}

	if note := errorNote(errs); note != "" {
		b.WriteString("\n")
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}

func noDataDigest(intent Intent, errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tech Watch Digest\n\nNo data collected for %q (focus: %s).\n", intent.Query, intent.Focus)
	if note := errorNote(errs); note != "" {
		b.WriteString("\n")
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}
