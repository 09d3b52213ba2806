// Package scheduler runs the watch on a cron schedule and exposes a small
// HTTP endpoint for manual triggers.
package scheduler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kayz/techwatch/internal/config"
	"github.com/kayz/techwatch/internal/logger"
	"github.com/kayz/techwatch/internal/pipeline"
)

// Runner executes one watch run for an intent.
type Runner interface {
	Run(ctx context.Context, intent pipeline.Intent) *pipeline.RunContext
}

// Deliverer ships a finished digest to its destinations.
type Deliverer func(ctx context.Context, digest string) error

// Scheduler owns the cron loop and the trigger server.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	deliver Deliverer
	cfg     config.ScheduleConfig
	server  *http.Server

	mu      sync.Mutex
	running bool
}

func New(cfg config.ScheduleConfig, runner Runner, deliver Deliverer) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		deliver: deliver,
		cfg:     cfg,
	}
}

// Start schedules the recurring run and, when a port is configured, serves
// the trigger endpoint. It blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := s.cfg.Cron
	if spec == "" {
		spec = "0 8 * * *"
	}
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.trigger(ctx, s.defaultIntent()); err != nil {
			logger.Warn("scheduled run skipped", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	s.cron.Start()
	logger.Info("scheduler started", "cron", spec, "port", s.cfg.Port)

	if s.cfg.Port > 0 {
		return s.serveTrigger(ctx)
	}

	<-ctx.Done()
	s.stop()
	return nil
}

func (s *Scheduler) stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) defaultIntent() pipeline.Intent {
	query := s.cfg.Query
	if query == "" {
		query = "what's new in tech?"
	}
	focus := pipeline.Focus(s.cfg.Focus)
	if focus == "" {
		focus = pipeline.FocusGeneral
	}
	period := s.cfg.Period
	if period == "" {
		period = "today"
	}
	return pipeline.Intent{Query: query, Focus: focus, Period: period, MaxPerSource: 10}
}

// trigger starts a run in the background unless one is already in flight.
func (s *Scheduler) trigger(ctx context.Context, intent pipeline.Intent) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("a run is already in progress")
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		run := s.runner.Run(ctx, intent)
		if s.deliver != nil {
			if err := s.deliver(ctx, run.Digest()); err != nil {
				logger.Error("scheduled delivery failed", "run_id", run.RunID, "error", err)
			}
		}
	}()
	return nil
}

// serveTrigger exposes POST /trigger for on-demand runs. Requests must carry
// the shared token when one is configured.
func (s *Scheduler) serveTrigger(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", s.handleTrigger(ctx))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutCtx)
		s.stop()
		return nil
	case err := <-errCh:
		s.stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type triggerRequest struct {
	Query  string `json:"query,omitempty"`
	Focus  string `json:"focus,omitempty"`
	Period string `json:"period,omitempty"`
}

func (s *Scheduler) handleTrigger(runCtx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !s.authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		intent := s.defaultIntent()
		var req triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			if req.Query != "" {
				intent.Query = req.Query
			}
			if req.Focus != "" {
				intent.Focus = pipeline.Focus(req.Focus)
			}
			if req.Period != "" {
				intent.Period = req.Period
			}
		}

		if err := s.trigger(runCtx, intent); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, "run started")
	}
}

func (s *Scheduler) authorized(r *http.Request) bool {
	token := s.cfg.TriggerToken
	if token == "" {
		return true
	}
	got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
