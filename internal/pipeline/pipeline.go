package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/techwatch/internal/history"
	"github.com/kayz/techwatch/internal/llm"
	"github.com/kayz/techwatch/internal/logger"
	"github.com/kayz/techwatch/internal/sources"
)

// Pipeline wires the five stages together. It is safe for concurrent use as
// long as the history store is; runs share no other state.
type Pipeline struct {
	collector   *Collector
	curator     *Curator
	synthesizer *Synthesizer
	finalizer   *Finalizer
}

func New(registry *sources.Registry, store history.Store, chain *llm.Chain, fetchTimeout time.Duration, maxRetries int) *Pipeline {
	return &Pipeline{
		collector:   NewCollector(registry, fetchTimeout, maxRetries),
		curator:     NewCurator(store),
		synthesizer: NewSynthesizer(chain),
		finalizer:   NewFinalizer(store),
	}
}

// Run executes one complete tech watch run. It always returns a completed
// RunContext; stage failures degrade the digest rather than abort the run.
func (p *Pipeline) Run(ctx context.Context, intent Intent) *RunContext {
	return p.run(ctx, intent, BuildPlan(intent))
}

func (p *Pipeline) run(ctx context.Context, intent Intent, plan Plan) *RunContext {
	run := &RunContext{
		RunID:     uuid.NewString(),
		Intent:    intent,
		StartedAt: time.Now(),
	}
	logger.Info("run started",
		"run_id", run.RunID,
		"query", intent.Query,
		"focus", intent.Focus,
		"period", intent.Period)

	run.Plan = plan
	run.Collection = p.collector.Collect(ctx, run.Plan, intent)
	run.APICalls += run.Collection.Calls
	run.Errors = append(run.Errors, run.Collection.Errors...)

	run.Curation = p.curator.Curate(run.Collection, intent)

	run.Synthesis = p.synthesizer.Synthesize(ctx, intent, run.Curation, run.Errors)
	if run.Synthesis.Provider != "" {
		run.APICalls++
	}

	p.finalizer.Finalize(run)
	logger.Info("run completed",
		"run_id", run.RunID,
		"fresh", len(run.Curation.Fresh),
		"recall", len(run.Curation.Recall),
		"api_calls", run.APICalls,
		"errors", len(run.Errors),
		"duration", run.CompletedAt.Sub(run.StartedAt))
	return run
}
