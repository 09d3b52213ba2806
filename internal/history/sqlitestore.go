package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/logger"
)

// SQLiteStore is the default history backend. Classify stays read-only on
// disk (seen-counter bumps are held in memory as pending updates); Commit
// applies inserts and pending bumps in one transaction.
type SQLiteStore struct {
	db        *sql.DB
	retention time.Duration
	mu        sync.Mutex
	pending   map[string]pendingBump
	now       func() time.Time
}

type pendingBump struct {
	timesSeen int
	lastSeen  time.Time
}

// NewSQLiteStore opens the SQLite-backed history at path.
func NewSQLiteStore(path string, retentionDays int) (*SQLiteStore, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

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

	s := &SQLiteStore{
		db:        db,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		pending:   make(map[string]pendingBump),
		now:       time.Now,
	}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_items (
			hash        TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			url         TEXT,
			first_seen  TEXT NOT NULL,
			last_seen   TEXT NOT NULL,
			times_seen  INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS meta (
			key    TEXT PRIMARY KEY,
			value  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sent_first_seen ON sent_items(first_seen);
	`)
	return err
}

func (s *SQLiteStore) Classify(items []feed.Item) ([]feed.Item, []feed.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeCleanup()

	var fresh, seen []feed.Item
	for _, it := range items {
		hash := ItemHash(it)

		var timesSeen int
		err := s.db.QueryRow(`SELECT times_seen FROM sent_items WHERE hash = ?`, hash).Scan(&timesSeen)
		switch {
		case err == sql.ErrNoRows:
			fresh = append(fresh, it)
			continue
		case err != nil:
			// Degrade per item: an unreadable store never blocks the run.
			logger.Warn("history lookup failed, treating as new", "error", err)
			fresh = append(fresh, it)
			continue
		}

		if bump, ok := s.pending[hash]; ok {
			timesSeen = bump.timesSeen
		}
		timesSeen++
		s.pending[hash] = pendingBump{timesSeen: timesSeen, lastSeen: s.now()}
		it.TimesSeen = timesSeen
		seen = append(seen, it)
	}
	return fresh, seen
}

// maybeCleanup evicts entries older than the retention window, at most once
// per cleanupInterval.
func (s *SQLiteStore) maybeCleanup() {
	now := s.now()

	var lastCleanup time.Time
	var raw string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_cleanup'`).Scan(&raw)
	if err == nil {
		lastCleanup, _ = time.Parse(time.RFC3339, raw)
	} else if err != sql.ErrNoRows {
		return
	}

	if now.Sub(lastCleanup) <= cleanupInterval {
		return
	}

	cutoff := now.Add(-s.retention).UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM sent_items WHERE first_seen < ?`, cutoff)
	if err != nil {
		logger.Warn("history eviction failed", "error", err)
		return
	}
	if _, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_cleanup', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, now.UTC().Format(time.RFC3339)); err != nil {
		logger.Warn("history cleanup timestamp update failed", "error", err)
	}
	if evicted, _ := res.RowsAffected(); evicted > 0 {
		logger.Info("history eviction", "evicted", evicted)
	}
}

func (s *SQLiteStore) Commit(items []feed.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	// Timestamps are stored in UTC so lexicographic comparison against the
	// eviction cutoff stays correct across host timezone changes.
	now := s.now().UTC().Format(time.RFC3339)
	for _, it := range items {
		if _, err := tx.Exec(`
			INSERT INTO sent_items (hash, title, url, first_seen, last_seen, times_seen)
			VALUES (?, ?, ?, ?, ?, 1)
			ON CONFLICT(hash) DO NOTHING
		`, ItemHash(it), auditTitle(it.Title), it.URL, now, now); err != nil {
			return fmt.Errorf("insert sent item: %w", err)
		}
	}

	for hash, bump := range s.pending {
		if _, err := tx.Exec(`
			UPDATE sent_items SET times_seen = ?, last_seen = ? WHERE hash = ?
		`, bump.timesSeen, bump.lastSeen.UTC().Format(time.RFC3339), hash); err != nil {
			return fmt.Errorf("update seen counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	s.pending = make(map[string]pendingBump)
	return nil
}

func (s *SQLiteStore) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{RetentionDays: int(s.retention / (24 * time.Hour))}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sent_items`).Scan(&st.TotalItems); err != nil {
		return st, err
	}
	var raw string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_cleanup'`).Scan(&raw)
	if err == nil {
		st.LastCleanup, _ = time.Parse(time.RFC3339, raw)
	} else if err != sql.ErrNoRows {
		return st, err
	}
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
