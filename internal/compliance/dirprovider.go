package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// DirProvider serves records from a dataset directory holding one JSON
// document per country (`<id>.json`). Refresh re-reads the document from
// disk, which is how dataset deploys become visible without a restart.
type DirProvider struct {
	root string

	mu    sync.RWMutex
	cache map[string]*Record
	now   func() time.Time
}

// NewDirProvider creates a provider rooted at the given dataset directory.
// The directory must exist.
func NewDirProvider(root string) (*DirProvider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("compliance: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("compliance: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("compliance: root is not a directory: %s", abs)
	}
	return &DirProvider{
		root:  abs,
		cache: make(map[string]*Record),
		now:   time.Now,
	}, nil
}

// Record returns the cached record for id, reading it from disk on first
// access. Returns apperr.ErrNotFound when the dataset has no such country.
func (p *DirProvider) Record(_ context.Context, id string) (*Record, error) {
	id = strings.ToUpper(id)

	p.mu.RLock()
	rec, ok := p.cache[id]
	p.mu.RUnlock()
	if ok {
		return rec, nil
	}

	return p.load(id)
}

// GenerateFallback builds a placeholder record for a country with no dataset
// entry yet.
func (p *DirProvider) GenerateFallback(name, id string) *Record {
	return &Record{
		ID:               strings.ToUpper(id),
		Name:             name,
		EInvoicingStatus: "unknown",
		References:       []Reference{},
		LastRefreshed:    p.now().UTC(),
	}
}

// Refresh re-reads the record from disk and stamps LastRefreshed.
func (p *DirProvider) Refresh(_ context.Context, id string) (*Record, error) {
	return p.load(strings.ToUpper(id))
}

// ListAllKnownIDs scans the dataset directory.
func (p *DirProvider) ListAllKnownIDs(_ context.Context) ([]string, error) {
	dirents, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("compliance: list dataset: %w", err)
	}
	var ids []string
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.ToUpper(strings.TrimSuffix(name, ".json")))
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *DirProvider) load(id string) (*Record, error) {
	path := filepath.Join(p.root, strings.ToLower(id)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("compliance: read %s: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("compliance: parse %s: %w", path, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	rec.LastRefreshed = p.now().UTC()

	p.mu.Lock()
	p.cache[id] = &rec
	p.mu.Unlock()
	return &rec, nil
}
