package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/llm"
)

type scriptedProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(ctx context.Context, system, user string) (string, error) {
	p.calls++
	return p.text, p.err
}

func sampleCuration() Curation {
	return Curation{
		Ranked: []feed.Item{
			{Title: "repo", URL: "https://g.example/r", Source: "github_trending"},
			{Title: "story", URL: "https://h.example/s", Source: "hackernews"},
			{Title: "paper", URL: "https://a.example/p", Source: "arxiv_ai"},
		},
		Fresh: []feed.Item{
			{Title: "repo", URL: "https://g.example/r", Source: "github_trending"},
			{Title: "story", URL: "https://h.example/s", Source: "hackernews"},
			{Title: "paper", URL: "https://a.example/p", Source: "arxiv_ai"},
		},
	}
}

func TestSynthesizeUsesFirstWorkingProvider(t *testing.T) {
	primary := &scriptedProvider{name: "openai", text: "# Digest"}
	backup := &scriptedProvider{name: "anthropic", text: "never"}

	s := NewSynthesizer(llm.NewChain(primary, backup))
	syn := s.Synthesize(context.Background(), Intent{Query: "q", Focus: FocusGeneral}, sampleCuration(), nil)

	if syn.Degraded {
		t.Fatal("expected a provider-generated digest")
	}
	if syn.Provider != "openai" || syn.Digest != "# Digest" {
		t.Fatalf("unexpected synthesis: %+v", syn)
	}
	if backup.calls != 0 {
		t.Fatal("backup provider should not run when the first succeeds")
	}
}

func TestSynthesizeFallsBackThroughChain(t *testing.T) {
	primary := &scriptedProvider{name: "openai", err: errors.New("quota")}
	backup := &scriptedProvider{name: "anthropic", text: "# Backup digest"}

	s := NewSynthesizer(llm.NewChain(primary, backup))
	syn := s.Synthesize(context.Background(), Intent{Focus: FocusGeneral}, sampleCuration(), nil)

	if syn.Provider != "anthropic" || syn.Degraded {
		t.Fatalf("expected backup provider to serve, got %+v", syn)
	}
}

func TestSynthesizeDegradedMode(t *testing.T) {
	dead := &scriptedProvider{name: "openai", err: errors.New("down")}

	s := NewSynthesizer(llm.NewChain(dead))
	syn := s.Synthesize(context.Background(), Intent{Focus: FocusGeneral, Period: "today"}, sampleCuration(), nil)

	if !syn.Degraded || syn.Provider != "" {
		t.Fatalf("expected degraded synthesis, got %+v", syn)
	}
	if !strings.Contains(syn.Digest, "degraded mode") {
		t.Fatal("degraded digest must say so")
	}
	for _, want := range []string{"Tools & Projects", "Articles & Discussions", "AI & Data", "https://g.example/r"} {
		if !strings.Contains(syn.Digest, want) {
			t.Fatalf("degraded digest missing %q:\n%s", want, syn.Digest)
		}
	}
}

func TestSynthesizeDegradedModeReportsFailedSources(t *testing.T) {
	dead := &scriptedProvider{name: "openai", err: errors.New("down")}

	s := NewSynthesizer(llm.NewChain(dead))
	syn := s.Synthesize(context.Background(), Intent{Focus: FocusGeneral, Period: "today"}, sampleCuration(),
		[]string{"beta: context deadline exceeded"})

	if !syn.Degraded {
		t.Fatalf("expected degraded synthesis, got %+v", syn)
	}
	if !strings.Contains(syn.Digest, "some sources were unavailable") {
		t.Fatalf("degraded digest missing the unavailable-sources note:\n%s", syn.Digest)
	}
	if !strings.Contains(syn.Digest, "beta: context deadline exceeded") {
		t.Fatalf("degraded digest should name the failed source:\n%s", syn.Digest)
	}
}

func TestSynthesizeNoData(t *testing.T) {
	live := &scriptedProvider{name: "openai", text: "should not be called"}

	s := NewSynthesizer(llm.NewChain(live))
	syn := s.Synthesize(context.Background(), Intent{Query: "q", Focus: FocusGeneral}, Curation{},
		[]string{"hackernews: timeout"})

	if live.calls != 0 {
		t.Fatal("no provider call expected without items")
	}
	if !strings.Contains(syn.Digest, "No data collected") {
		t.Fatalf("unexpected no-data digest:\n%s", syn.Digest)
	}
	if !strings.Contains(syn.Digest, "hackernews: timeout") {
		t.Fatal("no-data digest should mention source failures")
	}
}

func TestSynthesizeCategoryCounts(t *testing.T) {
	s := NewSynthesizer(llm.NewChain(&scriptedProvider{name: "openai", text: "d"}))
	syn := s.Synthesize(context.Background(), Intent{Focus: FocusGeneral}, sampleCuration(), nil)

	want := map[Category]int{CategoryTools: 1, CategoryArticles: 1, CategoryAIData: 1}
	for cat, n := range want {
		if syn.CategoryCounts[cat] != n {
			t.Fatalf("count[%s] = %d, want %d", cat, syn.CategoryCounts[cat], n)
		}
	}
}

func TestErrorNoteTruncates(t *testing.T) {
	errs := []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"}
	note := errorNote(errs)
	if !strings.Contains(note, "e5") || strings.Contains(note, "e6") {
		t.Fatalf("expected first five errors only: %s", note)
	}
	if !strings.Contains(note, "and 2 more") {
		t.Fatalf("expected overflow marker: %s", note)
	}
}

func TestErrorNoteDeduplicates(t *testing.T) {
	note := errorNote([]string{"x: timeout", "x: timeout", "y: 503", "x: timeout"})
	if got := strings.Count(note, "x: timeout"); got != 1 {
		t.Fatalf("expected one mention of x, got %d: %s", got, note)
	}
	if !strings.Contains(note, "y: 503") {
		t.Fatalf("distinct error dropped: %s", note)
	}
	if strings.Contains(note, "more") {
		t.Fatalf("no overflow expected for 2 distinct errors: %s", note)
	}

	errs := []string{"e1", "e1", "e1", "e2", "e3", "e4", "e5"}
	note = errorNote(errs)
	if !strings.Contains(note, "e5") || strings.Contains(note, "more") {
		t.Fatalf("duplicates must not count against the cap: %s", note)
	}
}

func TestCategoryForDefaultsToArticles(t *testing.T) {
	if got := categoryFor("mystery_source"); got != CategoryArticles {
		t.Fatalf("default category = %s, want articles", got)
	}
}
