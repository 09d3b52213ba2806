package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/history"
	"github.com/kayz/techwatch/internal/llm"
	"github.com/kayz/techwatch/internal/sources"
)

func endToEndRegistry() *sources.Registry {
	reg := sources.NewEmptyRegistry()
	var aItems []feed.Item
	for _, n := range []string{"a1", "a2", "a3", "a4", "a5"} {
		aItems = append(aItems, feed.Item{Title: "Title " + n, URL: "https://a.example/" + n, Description: "d"})
	}
	reg.Register(staticSource("alpha", aItems...))
	reg.Register(&fakeSource{name: "beta", fetch: func(int, context.Context, sources.Request) ([]feed.Item, error) {
		return nil, context.DeadlineExceeded
	}})
	reg.Register(staticSource("gamma",
		feed.Item{Title: "Title a1", URL: "https://a.example/a1", Description: "d"}, // repeat of alpha's first
		feed.Item{Title: "Gamma one", URL: "https://c.example/1", Description: "d"},
		feed.Item{Title: "Gamma two", URL: "https://c.example/2", Description: "d"},
	))
	return reg
}

func runPlan() Plan {
	return Plan{Focus: FocusGeneral, Primary: []string{"alpha", "beta"}, Secondary: []string{"gamma"}}
}

func TestPipelineEndToEnd(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"), 14)
	provider := &scriptedProvider{name: "openai", text: "# Daily digest"}

	p := &Pipeline{
		collector:   newTestCollector(endToEndRegistry(), 0),
		curator:     NewCurator(store),
		synthesizer: NewSynthesizer(llm.NewChain(provider)),
		finalizer:   NewFinalizer(store),
	}

	intent := Intent{Query: "what's new?", Focus: FocusGeneral, Period: "today", MaxPerSource: 10}
	run := p.run(context.Background(), intent, runPlan())

	if !run.Completed || run.CompletedAt.IsZero() {
		t.Fatal("run should complete")
	}
	if len(run.Curation.Ranked) != 7 {
		t.Fatalf("expected 7 unique items, got %d", len(run.Curation.Ranked))
	}
	if run.Curation.DuplicatesRemoved != 1 {
		t.Fatalf("expected 1 duplicate removed, got %d", run.Curation.DuplicatesRemoved)
	}
	if len(run.Errors) != 1 || !strings.Contains(run.Errors[0], "beta") {
		t.Fatalf("expected one error naming beta, got %v", run.Errors)
	}
	// Three attempted source fetches, measured before synthesis.
	if run.Collection.Calls != 3 {
		t.Fatalf("expected 3 outbound source calls, got %d", run.Collection.Calls)
	}
	// Plus one generation call.
	if run.APICalls != 4 {
		t.Fatalf("expected 4 API calls in total, got %d", run.APICalls)
	}
	if !strings.Contains(run.Digest(), "# Daily digest") {
		t.Fatalf("digest lost provider output:\n%s", run.Digest())
	}
	if !strings.Contains(run.Digest(), "New: 7") {
		t.Fatalf("stats footer missing:\n%s", run.Digest())
	}

	// A second run recalls what the first one committed.
	rerun := p.run(context.Background(), intent, runPlan())
	if len(rerun.Curation.Fresh) != 0 {
		t.Fatalf("second run should have no fresh items, got %d", len(rerun.Curation.Fresh))
	}
	if len(rerun.Curation.Recall) != 7 {
		t.Fatalf("second run should recall 7 items, got %d", len(rerun.Curation.Recall))
	}
}

func TestPipelineDegradedRunStillCompletes(t *testing.T) {
	p := &Pipeline{
		collector:   newTestCollector(endToEndRegistry(), 0),
		curator:     NewCurator(history.NopStore{}),
		synthesizer: NewSynthesizer(llm.NewChain()),
		finalizer:   NewFinalizer(history.NopStore{}),
	}

	run := p.run(context.Background(), Intent{Focus: FocusGeneral, MaxPerSource: 10}, runPlan())

	if !run.Completed {
		t.Fatal("degraded run must still complete")
	}
	if !run.Synthesis.Degraded {
		t.Fatal("empty chain should force degraded mode")
	}
	if run.APICalls != 3 {
		t.Fatalf("no generation call expected, got %d API calls", run.APICalls)
	}
}
