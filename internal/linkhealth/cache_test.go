package linkhealth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_CheckOneAndCached(t *testing.T) {
	srv := probeServer(t)
	cache := NewCache(NewChecker(2*time.Second, ""), 4)

	url := srv.URL + "/ok"
	if _, ok := cache.Cached(url); ok {
		t.Fatal("expected absent before first check")
	}

	if got := cache.CheckOne(context.Background(), url); got != ClassOK {
		t.Fatalf("CheckOne = %q, want ok", got)
	}

	status, ok := cache.Cached(url)
	if !ok {
		t.Fatal("expected cached status after check")
	}
	if status.Classification != ClassOK {
		t.Errorf("cached classification = %q, want ok", status.Classification)
	}
	if status.CheckedAt.IsZero() {
		t.Error("CheckedAt not set")
	}
}

func TestCache_AbsentDistinctFromUnknown(t *testing.T) {
	srv := probeServer(t)
	cache := NewCache(NewChecker(2*time.Second, ""), 4)

	url := srv.URL + "/teapot"
	if _, ok := cache.Cached(url); ok {
		t.Fatal("never-checked URL should be absent, not unknown")
	}
	cache.CheckOne(context.Background(), url)
	status, ok := cache.Cached(url)
	if !ok || status.Classification != ClassUnknown {
		t.Fatalf("checked ambiguous URL should be present as unknown, got %v %v", status, ok)
	}
}

func TestCache_CheckBatchMergesIntoCache(t *testing.T) {
	srv := probeServer(t)
	cache := NewCache(NewChecker(2*time.Second, ""), 4)

	// Seed one entry that the batch does not touch.
	cache.CheckOne(context.Background(), srv.URL+"/gone")

	urls := []string{srv.URL + "/ok", srv.URL + "/teapot"}
	results := cache.CheckBatch(context.Background(), urls)

	// The returned map is the merged cache: batch results plus the seed.
	if len(results) != 3 {
		t.Fatalf("merged results = %d, want 3", len(results))
	}
	if results[srv.URL+"/ok"].Classification != ClassOK {
		t.Errorf("/ok = %q, want ok", results[srv.URL+"/ok"].Classification)
	}
	if results[srv.URL+"/teapot"].Classification != ClassUnknown {
		t.Errorf("/teapot = %q, want unknown", results[srv.URL+"/teapot"].Classification)
	}
	if results[srv.URL+"/gone"].Classification != ClassNotFound {
		t.Errorf("seeded /gone = %q, want not-found", results[srv.URL+"/gone"].Classification)
	}

	if cache.Len() != 3 {
		t.Errorf("cache size = %d, want 3", cache.Len())
	}
	if s, ok := cache.Cached(srv.URL + "/gone"); !ok || s.Classification != ClassNotFound {
		t.Errorf("seeded entry lost: %v %v", s, ok)
	}
}

func TestCache_CheckBatchCancelledKeepsPriorEntries(t *testing.T) {
	srv := probeServer(t)
	cache := NewCache(NewChecker(2*time.Second, ""), 2)

	cache.CheckOne(context.Background(), srv.URL+"/ok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := cache.CheckBatch(ctx, []string{srv.URL + "/ok", srv.URL + "/gone"})

	// No probe ran: the known-good entry keeps its classification and the
	// never-checked URL stays absent instead of appearing as unknown.
	if s, ok := cache.Cached(srv.URL + "/ok"); !ok || s.Classification != ClassOK {
		t.Errorf("prior entry downgraded: %v %v", s, ok)
	}
	if _, ok := cache.Cached(srv.URL + "/gone"); ok {
		t.Error("unprobed URL should stay absent")
	}
	if len(results) != 1 {
		t.Errorf("merged results = %d, want 1", len(results))
	}
}

func TestCache_CheckBatchBoundsConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inflight.Add(-1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := NewCache(NewChecker(2*time.Second, ""), 2)
	urls := make([]string, 10)
	for i := range urls {
		urls[i] = srv.URL + "/" + string(rune('a'+i))
	}
	cache.CheckBatch(context.Background(), urls)

	if peak.Load() > 2 {
		t.Errorf("peak concurrent probes = %d, want <= 2", peak.Load())
	}
}

func TestCache_NormalizedKey(t *testing.T) {
	cache := NewCache(NewChecker(100*time.Millisecond, ""), 2)
	// Both forms normalize to the same https key; nothing resolves the host,
	// so the probe lands on unknown, but the cache key must be canonical.
	cache.CheckOne(context.Background(), "http://example.invalid/x?")
	if _, ok := cache.Cached("https://example.invalid/x"); !ok {
		t.Error("expected lookup by normalized form to hit")
	}
	if cache.Len() != 1 {
		t.Errorf("cache size = %d, want 1", cache.Len())
	}
}
