// Package pipeline implements the five-stage curation run:
// plan -> collect -> curate -> synthesize -> finalize. Each stage produces
// its own result struct; the orchestrator merges them onto the RunContext so
// no stage can depend on fields it does not own.
package pipeline

import (
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

// Focus narrows a run to one topic area.
type Focus string

const (
	FocusGeneral  Focus = "general"
	FocusAI       Focus = "ai"
	FocusDevops   Focus = "devops"
	FocusWeb      Focus = "web"
	FocusSecurity Focus = "security"
	FocusTools    Focus = "tools"
	FocusAll      Focus = "all"
)

// Intent is the structured request driving one run.
type Intent struct {
	Query        string
	Focus        Focus
	Period       string // "today", "week", "month"
	MaxPerSource int
}

// Plan is the planner's output: which sources to query, split into the
// high-signal primary tier and the supplementary secondary tier.
type Plan struct {
	Focus     Focus // focus actually used, possibly re-derived from the query
	Primary   []string
	Secondary []string
}

// Collection is the collector's output. Order preserves the request order
// (primary tier first) so later stages iterate deterministically.
type Collection struct {
	Order   []string
	Results map[string]feed.FetchResult
	Calls   int
	Errors  []string
}

// Curation is the curator's output.
type Curation struct {
	Ranked            []feed.Item // full ranked list, for archival
	Fresh             []feed.Item // never sent before, feeds the digest
	Recall            []feed.Item // already sent, surfaced as reminders
	DuplicatesRemoved int
}

// Synthesis is the synthesizer's output.
type Synthesis struct {
	Digest         string
	Provider       string // empty in degraded mode
	Degraded       bool
	CategoryCounts map[Category]int
}

// RunContext carries one run end to end. Errors and APICalls are the only
// fields appended to by multiple stages.
type RunContext struct {
	RunID  string
	Intent Intent

	Plan       Plan
	Collection Collection
	Curation   Curation
	Synthesis  Synthesis

	Errors      []string
	APICalls    int
	StartedAt   time.Time
	CompletedAt time.Time
	Completed   bool
}

// Digest returns the final digest text.
func (rc *RunContext) Digest() string {
	return rc.Synthesis.Digest
}
