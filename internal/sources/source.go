package sources

import (
	"context"

	"github.com/kayz/techwatch/internal/feed"
)

// Request carries the per-fetch parameters a source may care about. Sources
// ignore fields that do not apply to them.
type Request struct {
	Limit  int
	Period string // "today", "week", "month"
	Query  string
}

// Source fetches raw items from one upstream. Implementations may return an
// error on transport failure; the collector converts it into a FetchResult
// error and never lets it escape the run.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]feed.Item, error)
}
