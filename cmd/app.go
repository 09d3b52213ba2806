package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kayz/techwatch/internal/config"
	"github.com/kayz/techwatch/internal/history"
	"github.com/kayz/techwatch/internal/llm"
	"github.com/kayz/techwatch/internal/logger"
	"github.com/kayz/techwatch/internal/notify"
	"github.com/kayz/techwatch/internal/persist"
	"github.com/kayz/techwatch/internal/pipeline"
	"github.com/kayz/techwatch/internal/sources"
)

// app bundles everything a command needs for a run.
type app struct {
	cfg       *config.Config
	store     history.Store
	pipe      *pipeline.Pipeline
	notifiers []notify.Notifier
	archive   *persist.Store
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// applyLogging honors the config logging section. The --log flag wins over
// the file when both set a level.
func applyLogging(cfg *config.Config) {
	if cfg.Logging.Level != "" && !rootCmd.PersistentFlags().Changed("log") {
		if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
			logger.SetLevel(level)
		}
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			logger.Warn("log file not writable, keeping stderr", "path", cfg.Logging.File, "error", err)
		} else {
			logger.SetOutput(f)
		}
	}
}

// newApp wires the pipeline from config. The run archive is optional; when
// it cannot be opened the run still happens, it just is not recorded.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyLogging(cfg)

	registry := sources.NewRegistry(cfg.Sources)
	store := history.Open(cfg.History, cfg.HistoryPath())
	chain := llm.NewChain(llm.FromConfig(cfg.LLM)...)
	if chain.Empty() {
		logger.Warn("no LLM provider configured, digests will use the fallback template")
	}

	archive, err := persist.NewStore(filepath.Join(config.DataDir(), "runs.db"))
	if err != nil {
		logger.Warn("run archive unavailable", "error", err)
		archive = nil
	}

	return &app{
		cfg:   cfg,
		store: store,
		pipe: pipeline.New(registry, store,
			chain,
			time.Duration(cfg.Sources.TimeoutSeconds)*time.Second,
			cfg.Sources.MaxRetries),
		notifiers: notify.FromConfig(cfg.Notify),
		archive:   archive,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("history close failed", "error", err)
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			logger.Warn("archive close failed", "error", err)
		}
	}
}

// archiveRun records a completed run, best effort.
func (a *app) archiveRun(run *pipeline.RunContext) {
	if a.archive == nil {
		return
	}
	rec := &persist.RunRecord{
		RunID:       run.RunID,
		Query:       run.Intent.Query,
		Focus:       string(run.Plan.Focus),
		Period:      run.Intent.Period,
		Digest:      run.Digest(),
		Provider:    run.Synthesis.Provider,
		Degraded:    run.Synthesis.Degraded,
		Fresh:       len(run.Curation.Fresh),
		Recall:      len(run.Curation.Recall),
		Duplicates:  run.Curation.DuplicatesRemoved,
		APICalls:    run.APICalls,
		Errors:      run.Errors,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
	}
	if err := a.archive.SaveRun(rec); err != nil {
		logger.Warn("run not archived", "run_id", run.RunID, "error", err)
	}
}
