package persist

import "time"

// RunRecord is the archived outcome of one tech watch run.
type RunRecord struct {
	ID          int64
	RunID       string
	Query       string
	Focus       string
	Period      string
	Digest      string
	Provider    string // empty when the digest was template-rendered
	Degraded    bool
	Fresh       int
	Recall      int
	Duplicates  int
	APICalls    int
	Errors      []string
	StartedAt   time.Time
	CompletedAt time.Time
}
