package linkhealth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/starford/raido/internal/urlnorm"
)

// Status is the cached outcome of the most recent probe of a URL.
// Last check wins; no history is kept.
type Status struct {
	NormalizedURL  string         `json:"normalized_url"`
	Classification Classification `json:"classification"`
	CheckedAt      time.Time      `json:"checked_at"`
}

// Cache holds probe results keyed by normalized URL. Entries persist for the
// process lifetime and are only replaced by a newer check; the refresh
// orchestrator's post-phase sweep is what keeps them current.
type Cache struct {
	checker *Checker
	sem     *semaphore.Weighted

	mu       sync.RWMutex
	statuses map[string]Status
	now      func() time.Time
}

// NewCache creates a Cache that bounds concurrent probes at maxConcurrent.
func NewCache(checker *Checker, maxConcurrent int) *Cache {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Cache{
		checker:  checker,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		statuses: make(map[string]Status),
		now:      time.Now,
	}
}

// CheckOne probes a single URL and records the result. Never errors.
func (c *Cache) CheckOne(ctx context.Context, raw string) Classification {
	normalized := urlnorm.Normalize(raw)
	class := c.checker.Probe(ctx, normalized)
	c.store(normalized, class)
	return class
}

// CheckBatch probes all URLs concurrently (bounded), merges the results into
// the shared cache, and returns a snapshot of the full post-merge cache keyed
// by normalized URL. Near-duplicate inputs that normalize identically share
// one cache key; the merged entry retains whichever probe finished last. A
// URL whose probe never ran (context cancelled before a slot freed) keeps its
// prior entry, if any, rather than being downgraded.
func (c *Cache) CheckBatch(ctx context.Context, urls []string) map[string]Status {
	var g errgroup.Group
	for _, raw := range urls {
		normalized := urlnorm.Normalize(raw)
		g.Go(func() error {
			if err := c.sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			class := c.checker.Probe(ctx, normalized)
			c.sem.Release(1)
			c.store(normalized, class)
			return nil
		})
	}
	_ = g.Wait() // probes never error

	return c.snapshot()
}

// Cached returns the stored status for a URL. The second return value is
// false when the URL has never been checked, which is distinct from a
// checked-but-ambiguous ClassUnknown.
func (c *Cache) Cached(raw string) (Status, bool) {
	normalized := urlnorm.Normalize(raw)
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.statuses[normalized]
	return s, ok
}

// Len returns the number of cached statuses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses)
}

func (c *Cache) snapshot() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Status, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}

func (c *Cache) store(normalized string, class Classification) Status {
	status := Status{
		NormalizedURL:  normalized,
		Classification: class,
		CheckedAt:      c.now(),
	}
	c.mu.Lock()
	c.statuses[normalized] = status
	c.mu.Unlock()
	return status
}
