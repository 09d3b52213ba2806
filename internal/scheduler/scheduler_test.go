package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kayz/techwatch/internal/config"
	"github.com/kayz/techwatch/internal/pipeline"
)

type fakeRunner struct {
	mu      sync.Mutex
	intents []pipeline.Intent
	block   chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, intent pipeline.Intent) *pipeline.RunContext {
	f.mu.Lock()
	f.intents = append(f.intents, intent)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return &pipeline.RunContext{RunID: "r", Intent: intent, Completed: true}
}

func (f *fakeRunner) waitForRuns(t *testing.T, n int) []pipeline.Intent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.intents) >= n {
			out := append([]pipeline.Intent{}, f.intents...)
			f.mu.Unlock()
			return out
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d runs", n)
	return nil
}

func (s *Scheduler) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for run to finish")
}

func TestTriggerEndpointRunsPipeline(t *testing.T) {
	runner := &fakeRunner{}
	s := New(config.ScheduleConfig{Query: "default q"}, runner, nil)

	h := s.handleTrigger(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/trigger", strings.NewReader(`{"focus":"ai","period":"week"}`))
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	got := runner.waitForRuns(t, 1)[0]
	if got.Focus != pipeline.FocusAI || got.Period != "week" || got.Query != "default q" {
		t.Fatalf("intent merge wrong: %+v", got)
	}
	s.waitIdle(t)
}

func TestTriggerEndpointRejectsGet(t *testing.T) {
	s := New(config.ScheduleConfig{}, &fakeRunner{}, nil)

	h := s.handleTrigger(context.Background())
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/trigger", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestTriggerEndpointAuth(t *testing.T) {
	runner := &fakeRunner{}
	s := New(config.ScheduleConfig{TriggerToken: "secret"}, runner, nil)
	h := s.handleTrigger(context.Background())

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/trigger", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", w.Code)
	}
	if len(runner.intents) != 0 {
		t.Fatal("unauthorized trigger must not run")
	}

	req := httptest.NewRequest(http.MethodPost, "/trigger", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("valid token: status = %d, want 202", w.Code)
	}
	runner.waitForRuns(t, 1)
	s.waitIdle(t)
}

func TestTriggerRefusesConcurrentRuns(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := New(config.ScheduleConfig{}, runner, nil)

	if err := s.trigger(context.Background(), s.defaultIntent()); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	runner.waitForRuns(t, 1)

	if err := s.trigger(context.Background(), s.defaultIntent()); err == nil {
		t.Fatal("expected overlap rejection")
	}

	close(runner.block)
	s.waitIdle(t)
}

func TestDefaultIntent(t *testing.T) {
	s := New(config.ScheduleConfig{}, &fakeRunner{}, nil)
	intent := s.defaultIntent()
	if intent.Query == "" || intent.Focus != pipeline.FocusGeneral || intent.Period != "today" {
		t.Fatalf("unexpected defaults: %+v", intent)
	}
}
