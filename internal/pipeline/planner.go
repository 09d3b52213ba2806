package pipeline

import (
	"strings"

	"github.com/kayz/techwatch/internal/logger"
)

// focusSources maps each focus to its relevant source ids.
var focusSources = map[Focus][]string{
	FocusGeneral: {
		"github_trending", "hackernews", "reddit_programming",
		"tech_news", "lobsters", "producthunt",
	},
	FocusAI: {
		"github_trending", "hackernews", "reddit_ml",
		"reddit_llm", "arxiv_ai", "tech_news",
	},
	FocusDevops: {
		"github_trending", "reddit_devops", "reddit_selfhosted",
		"hackernews", "tech_news",
	},
	FocusWeb: {
		"github_trending", "reddit_programming", "reddit_webdev",
		"hackernews", "producthunt",
	},
	FocusSecurity: {
		"github_trending", "reddit_netsec", "hackernews", "tech_news",
	},
	FocusTools: {
		"github_trending", "producthunt", "hackernews", "reddit_selfhosted",
	},
	FocusAll: {
		"github_trending", "hackernews", "reddit_programming",
		"reddit_ml", "reddit_devops", "lobsters", "producthunt", "tech_news",
	},
}

// prioritySources are the high-signal ids that always go in the primary tier.
var prioritySources = map[string]bool{
	"github_trending":    true,
	"hackernews":         true,
	"reddit_programming": true,
	"reddit_ml":          true,
	"lobsters":           true,
}

// keywordGroups re-derive the focus from the query text. Order matters: the
// first group with a match wins.
var keywordGroups = []struct {
	focus    Focus
	keywords []string
}{
	{FocusAI, []string{"ai", "ia", "llm", "gpt", "machine learning", "ml", "deep learning"}},
	{FocusDevops, []string{"devops", "kubernetes", "k8s", "docker", "cloud", "infra", "sre"}},
	{FocusSecurity, []string{"security", "sécurité", "hack", "vulnerability", "cve"}},
	{FocusWeb, []string{"web", "frontend", "backend", "react", "vue", "javascript", "typescript"}},
}

// BuildPlan selects and tiers the sources for an intent. Pure function: no
// I/O, never fails, returns at least an empty plan.
func BuildPlan(intent Intent) Plan {
	requested := intent.Focus
	if _, ok := focusSources[requested]; !ok {
		requested = FocusGeneral
	}

	detected := requested
	query := strings.ToLower(intent.Query)
	for _, group := range keywordGroups {
		if containsAny(query, group.keywords) {
			detected = group.focus
			break
		}
	}

	selected := focusSources[detected]

	var primary, secondary []string
	for _, id := range selected {
		if prioritySources[id] {
			primary = append(primary, id)
		} else {
			secondary = append(secondary, id)
		}
	}

	// A generic run gets the general-interest staples on top.
	if detected == FocusGeneral || requested == FocusAll {
		primary = union(primary, "github_trending", "hackernews")
		secondary = union(secondary, "producthunt", "tech_news")
	}

	logger.Debug("plan built",
		"focus", detected,
		"primary", strings.Join(primary, ","),
		"secondary", strings.Join(secondary, ","))

	return Plan{Focus: detected, Primary: primary, Secondary: secondary}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// union appends ids not already present, keeping insertion order.
func union(ids []string, extra ...string) []string {
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	for _, id := range extra {
		if !present[id] {
			ids = append(ids, id)
			present[id] = true
		}
	}
	return ids
}
