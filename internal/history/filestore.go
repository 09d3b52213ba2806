package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/logger"
)

type snapshot struct {
	Items       map[string]*Entry `json:"items"`
	LastCleanup time.Time         `json:"last_cleanup"`
}

// FileStore keeps the history as one JSON file, loaded on open and written
// back atomically on Commit.
type FileStore struct {
	path      string
	retention time.Duration
	snap      *snapshot
	mu        sync.Mutex
	now       func() time.Time
}

// NewFileStore opens (or initializes) the JSON history at path. A missing or
// corrupt file degrades to an empty history rather than failing.
func NewFileStore(path string, retentionDays int) *FileStore {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	s := &FileStore{
		path:      path,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
	s.snap = s.load()
	return s
}

func (s *FileStore) load() *snapshot {
	fresh := &snapshot{Items: make(map[string]*Entry), LastCleanup: s.now()}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("history file unreadable, starting empty", "path", s.path, "error", err)
		}
		return fresh
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("history file corrupt, starting empty", "path", s.path, "error", err)
		return fresh
	}
	if snap.Items == nil {
		snap.Items = make(map[string]*Entry)
	}
	for hash, e := range snap.Items {
		e.Hash = hash
	}
	return &snap
}

func (s *FileStore) Classify(items []feed.Item) ([]feed.Item, []feed.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeCleanup()

	var fresh, seen []feed.Item
	for _, it := range items {
		entry, ok := s.snap.Items[ItemHash(it)]
		if !ok {
			fresh = append(fresh, it)
			continue
		}
		entry.TimesSeen++
		entry.LastSeen = s.now()
		it.TimesSeen = entry.TimesSeen
		seen = append(seen, it)
	}
	return fresh, seen
}

// maybeCleanup evicts expired entries, at most once per cleanupInterval.
func (s *FileStore) maybeCleanup() {
	now := s.now()
	if now.Sub(s.snap.LastCleanup) <= cleanupInterval {
		return
	}
	cutoff := now.Add(-s.retention)
	evicted := 0
	for hash, e := range s.snap.Items {
		if e.FirstSeen.Before(cutoff) {
			delete(s.snap.Items, hash)
			evicted++
		}
	}
	s.snap.LastCleanup = now
	if evicted > 0 {
		logger.Info("history eviction", "evicted", evicted, "retained", len(s.snap.Items))
	}
}

func (s *FileStore) Commit(items []feed.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, it := range items {
		hash := ItemHash(it)
		if _, ok := s.snap.Items[hash]; ok {
			continue
		}
		s.snap.Items[hash] = &Entry{
			Hash:      hash,
			Title:     auditTitle(it.Title),
			URL:       it.URL,
			FirstSeen: now,
			LastSeen:  now,
			TimesSeen: 1,
		}
	}
	return s.write()
}

// write persists the snapshot with a tmp-file rename so a crash mid-write
// cannot corrupt the store.
func (s *FileStore) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		TotalItems:    len(s.snap.Items),
		LastCleanup:   s.snap.LastCleanup,
		RetentionDays: int(s.retention / (24 * time.Hour)),
	}, nil
}

func (s *FileStore) Close() error { return nil }
