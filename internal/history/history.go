// Package history remembers which items have already been sent in a digest,
// so reruns surface them as recalls instead of novelties. Entries expire
// after a retention window; eviction runs lazily, at most once per day.
package history

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

const (
	// DefaultRetentionDays is how long an entry stays before the item can
	// count as new again.
	DefaultRetentionDays = 14

	cleanupInterval = 24 * time.Hour
	titleAuditLimit = 100
)

// Entry is the persisted record for one seen item.
type Entry struct {
	Hash      string    `json:"-"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	TimesSeen int       `json:"times_seen"`
}

// Stats summarizes the store for the CLI.
type Stats struct {
	TotalItems    int
	LastCleanup   time.Time
	RetentionDays int
}

// Store splits curated items into new vs previously seen and records sent
// items. Classify updates seen counters only in memory; Commit is the only
// durable write, so a run that dies before finishing its digest never marks
// items as sent.
type Store interface {
	Classify(items []feed.Item) (fresh, seen []feed.Item)
	Commit(items []feed.Item) error
	Stats() (Stats, error)
	Close() error
}

// ItemHash derives the stable identity of an item: its URL when present,
// else its title, lower-cased.
func ItemHash(it feed.Item) string {
	key := it.URL
	if key == "" {
		key = it.Title
	}
	sum := md5.Sum([]byte(strings.ToLower(key)))
	return hex.EncodeToString(sum[:])[:16]
}

// NopStore is the degraded store used when persistence is unavailable:
// everything is new, nothing is recorded.
type NopStore struct{}

func (NopStore) Classify(items []feed.Item) ([]feed.Item, []feed.Item) { return items, nil }
func (NopStore) Commit([]feed.Item) error                              { return nil }
func (NopStore) Stats() (Stats, error)                                 { return Stats{}, nil }
func (NopStore) Close() error                                          { return nil }

func auditTitle(s string) string {
	if len(s) > titleAuditLimit {
		return s[:titleAuditLimit]
	}
	return s
}
