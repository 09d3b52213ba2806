package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kayz/techwatch/internal/feed"
	"github.com/kayz/techwatch/internal/logger"
	"github.com/kayz/techwatch/internal/sources"
)

// Collector fans out to the planned sources tier by tier. Every requested id
// ends up with a FetchResult; no failure escapes the stage.
type Collector struct {
	registry    *sources.Registry
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	now         func() time.Time
}

func NewCollector(registry *sources.Registry, timeout time.Duration, maxRetries int) *Collector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Collector{
		registry:    registry,
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffBase: 500 * time.Millisecond,
		now:         time.Now,
	}
}

// Collect queries the primary tier, waits for all of it, then the secondary
// tier. Results merge by source id so ordering never depends on completion
// order.
func (c *Collector) Collect(ctx context.Context, plan Plan, intent Intent) Collection {
	col := Collection{Results: make(map[string]feed.FetchResult)}

	req := sources.Request{
		Limit:  intent.MaxPerSource,
		Period: intent.Period,
		Query:  intent.Query,
	}

	for _, tier := range [][]string{plan.Primary, plan.Secondary} {
		if len(tier) == 0 {
			continue
		}
		for _, f := range c.fetchTier(ctx, tier, req) {
			col.Order = append(col.Order, f.res.Source)
			col.Results[f.res.Source] = f.res
			if f.res.Err != "" {
				col.Errors = append(col.Errors, f.res.Err)
			}
			// Failed fetches still hit the network; only unresolved ids don't.
			if f.attempted {
				col.Calls++
			}
		}
	}

	total := 0
	for _, res := range col.Results {
		total += len(res.Items)
	}
	logger.Info("collection done",
		"sources", len(col.Results),
		"items", total,
		"calls", col.Calls,
		"errors", len(col.Errors))
	return col
}

// fetch pairs one source's result with whether an upstream request was made
// at all; unresolved ids never reach the network.
type fetch struct {
	res       feed.FetchResult
	attempted bool
}

// fetchTier runs one tier concurrently and blocks until every fetch in it
// finished, successfully or not.
func (c *Collector) fetchTier(ctx context.Context, ids []string, req sources.Request) []fetch {
	results := make([]fetch, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = c.fetchOne(ctx, id, req)
		}(i, id)
	}
	wg.Wait()
	return results
}

func (c *Collector) fetchOne(ctx context.Context, id string, req sources.Request) fetch {
	src, ok := c.registry.Resolve(id)
	if !ok {
		return fetch{res: feed.FetchResult{
			Source:    id,
			Items:     []feed.Item{},
			FetchedAt: c.now(),
			Err:       fmt.Sprintf("unknown source %q", id),
		}}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		items, err := c.safeFetch(ctx, src, req)
		if err == nil {
			logger.Debug("source fetched", "source", id, "items", len(items))
			if items == nil {
				items = []feed.Item{}
			}
			return fetch{res: feed.FetchResult{Source: id, Items: items, FetchedAt: c.now()}, attempted: true}
		}
		lastErr = err

		if attempt >= c.maxRetries || !isTransient(err) {
			break
		}
		// Exponential backoff between transient failures.
		wait := c.backoffBase << attempt
		logger.Debug("source retry", "source", id, "attempt", attempt+1, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}

	logger.Warn("source failed", "source", id, "error", lastErr)
	return fetch{
		res: feed.FetchResult{
			Source:    id,
			Items:     []feed.Item{},
			FetchedAt: c.now(),
			Err:       fmt.Sprintf("%s: %v", id, lastErr),
		},
		attempted: true,
	}
}

// safeFetch bounds one attempt by the per-fetch time budget and converts a
// panicking connector into an error.
func (c *Collector) safeFetch(ctx context.Context, src sources.Source, req sources.Request) (items []feed.Item, err error) {
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	return src.Fetch(fctx, req)
}

// isTransient reports whether a fetch failure is worth retrying: timeouts
// and rate limits only.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return sources.IsRateLimited(err)
}
