// Package persist archives completed runs in SQLite so past digests can be
// listed and re-read from the CLI.
package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles persistence of run digests using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new SQLite-backed run archive at the given path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist.
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL UNIQUE,
			query         TEXT NOT NULL,
			focus         TEXT NOT NULL,
			period        TEXT NOT NULL,
			digest        TEXT,
			provider      TEXT,
			degraded      INTEGER NOT NULL DEFAULT 0,
			fresh         INTEGER NOT NULL DEFAULT 0,
			recall        INTEGER NOT NULL DEFAULT 0,
			duplicates    INTEGER NOT NULL DEFAULT 0,
			api_calls     INTEGER NOT NULL DEFAULT 0,
			errors        TEXT,
			started_at    TEXT NOT NULL,
			completed_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	return err
}

// SaveRun archives one completed run.
func (s *Store) SaveRun(rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	errsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode errors: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO runs (run_id, query, focus, period, digest, provider, degraded,
			fresh, recall, duplicates, api_calls, errors, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Query, rec.Focus, rec.Period, rec.Digest, rec.Provider,
		boolToInt(rec.Degraded), rec.Fresh, rec.Recall, rec.Duplicates, rec.APICalls,
		string(errsJSON), rec.StartedAt.UTC().Format(time.RFC3339), rec.CompletedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	rec.ID, err = result.LastInsertId()
	return err
}

// GetRun returns one archived run by its run id.
func (s *Store) GetRun(runID string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, run_id, query, focus, period, digest, provider, degraded,
			fresh, recall, duplicates, api_calls, errors, started_at, completed_at
		FROM runs WHERE run_id = ?
	`, runID)
	return scanRun(row)
}

// LatestRun returns the most recently started run, or nil when the archive
// is empty.
func (s *Store) LatestRun() (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, run_id, query, focus, period, digest, provider, degraded,
			fresh, recall, duplicates, api_calls, errors, started_at, completed_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT 1
	`)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListRuns returns up to limit recent runs, newest first. Digests are
// omitted to keep listings light.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, run_id, query, focus, period, '', provider, degraded,
			fresh, recall, duplicates, api_calls, errors, started_at, completed_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var degraded int
	var errsJSON, startedAt, completedAt string

	err := row.Scan(&rec.ID, &rec.RunID, &rec.Query, &rec.Focus, &rec.Period,
		&rec.Digest, &rec.Provider, &degraded, &rec.Fresh, &rec.Recall,
		&rec.Duplicates, &rec.APICalls, &errsJSON, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	rec.Degraded = degraded != 0
	if errsJSON != "" {
		if err := json.Unmarshal([]byte(errsJSON), &rec.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode errors: %w", err)
		}
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	rec.CompletedAt, _ = time.Parse(time.RFC3339, completedAt)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
