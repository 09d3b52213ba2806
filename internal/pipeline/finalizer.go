package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/kayz/techwatch/internal/history"
	"github.com/kayz/techwatch/internal/logger"
)

// Finalizer records the run in history and closes out the digest with a
// stats footer.
type Finalizer struct {
	store history.Store
	now   func() time.Time
}

func NewFinalizer(store history.Store) *Finalizer {
	if store == nil {
		store = history.NopStore{}
	}
	return &Finalizer{store: store, now: time.Now}
}

// Finalize commits the fresh items so the next run recognizes them, then
// stamps the run complete. A failed commit is logged and the run still
// completes; the worst outcome is a repeat tomorrow.
func (f *Finalizer) Finalize(run *RunContext) {
	if err := f.store.Commit(run.Curation.Fresh); err != nil {
		logger.Error("history commit failed", "error", err)
		run.Errors = append(run.Errors, fmt.Sprintf("history: %v", err))
	}

	run.Synthesis.Digest += statsFooter(run)
	run.CompletedAt = f.now()
	run.Completed = true
}

func statsFooter(run *RunContext) string {
	var b strings.Builder
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "New: %d | Recalled: %d | Duplicates removed: %d | API calls: %d",
		len(run.Curation.Fresh),
		len(run.Curation.Recall),
		run.Curation.DuplicatesRemoved,
		run.APICalls)
	if n := len(run.Errors); n > 0 {
		fmt.Fprintf(&b, " | Errors: %d", n)
	}

	var parts []string
	for _, cat := range categoryOrder {
		if n := run.Synthesis.CategoryCounts[cat]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", categoryTitles[cat], n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "\nSections: %s", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	return b.String()
}
