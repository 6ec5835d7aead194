package override

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-memory view of the override collection plus its write
// path. All writes are serialized through one mutex and go through a full
// read-modify-write of the repository, so concurrent curators cannot lose
// updates to each other. The in-memory slice is only replaced after the
// repository write succeeds.
type Store struct {
	mu      sync.RWMutex
	repo    Repository
	entries []Entry
	now     func() time.Time
}

// NewStore creates a Store and loads the current collection.
func NewStore(repo Repository) (*Store, error) {
	s := &Store{repo: repo, now: time.Now}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the collection from the repository, discarding the
// in-memory view. Used at startup and when the backing file changes on disk.
func (s *Store) Reload() error {
	entries, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("override: reload: %w", err)
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// CreateOrUpdate creates an override for the request's tuple, or if an
// active entry already exists for it, updates that entry in place (same id,
// DateProvided preserved, LastUpdated bumped).
func (s *Store) CreateOrUpdate(req CreateRequest) (Entry, error) {
	if err := req.Validate(); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)

	now := s.now().UTC()
	idx := activeIndex(entries, req.CountryCode, req.OriginalURL, req.Kind)
	if idx >= 0 {
		entries[idx].CustomURL = req.CustomURL
		entries[idx].Title = req.Title
		entries[idx].Notes = req.Notes
		entries[idx].LastUpdated = now
	} else {
		entries = append(entries, Entry{
			ID:           uuid.NewString(),
			CountryCode:  normalizeCountry(req.CountryCode),
			Kind:         req.Kind,
			OriginalURL:  req.OriginalURL,
			CustomURL:    req.CustomURL,
			Title:        req.Title,
			Notes:        req.Notes,
			DateProvided: now,
			LastUpdated:  now,
			Active:       true,
		})
		idx = len(entries) - 1
	}

	if err := s.repo.Save(entries); err != nil {
		return Entry{}, fmt.Errorf("override: save: %w", err)
	}
	s.entries = entries
	return entries[idx], nil
}

// Delete soft-deletes the entry with the given id. It reports whether a
// change was made: false for unknown ids and for entries already inactive.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.entries {
		if s.entries[i].ID == id && s.entries[i].Active {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	entries[idx].Active = false
	entries[idx].LastUpdated = s.now().UTC()

	if err := s.repo.Save(entries); err != nil {
		return false, fmt.Errorf("override: save: %w", err)
	}
	s.entries = entries
	return true, nil
}

// Resolve returns the active override's custom URL for the tuple, or false
// when no active override exists.
func (s *Store) Resolve(countryCode, originalURL, kind string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := activeIndex(s.entries, countryCode, originalURL, kind); idx >= 0 {
		return s.entries[idx].CustomURL, true
	}
	return "", false
}

// Get returns the active override entry for the tuple.
func (s *Store) Get(countryCode, originalURL, kind string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := activeIndex(s.entries, countryCode, originalURL, kind); idx >= 0 {
		return s.entries[idx], true
	}
	return Entry{}, false
}

// ShouldPreferOverride decides whether the curated override should be shown
// instead of the original link. Without a competing freshness signal the
// override always wins. With one, it wins only while it is at least as fresh
// as the source's last known change; a source that changed after curation
// may have invalidated the replacement.
func (s *Store) ShouldPreferOverride(countryCode, originalURL, kind string, sourceLastUpdated *time.Time) bool {
	entry, ok := s.Get(countryCode, originalURL, kind)
	if !ok {
		return false
	}
	if sourceLastUpdated == nil {
		return true
	}
	return !entry.DateProvided.Before(*sourceLastUpdated)
}

// List returns a copy of every entry, active and inactive, optionally
// filtered by country code.
func (s *Store) List(countryCode string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if countryCode != "" && !strings.EqualFold(e.CountryCode, countryCode) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func activeIndex(entries []Entry, countryCode, originalURL, kind string) int {
	for i := range entries {
		e := &entries[i]
		if e.Active &&
			strings.EqualFold(e.CountryCode, countryCode) &&
			e.OriginalURL == originalURL &&
			e.Kind == kind {
			return i
		}
	}
	return -1
}

func normalizeCountry(code string) string {
	return strings.ToUpper(code)
}
