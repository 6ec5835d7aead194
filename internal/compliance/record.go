// Package compliance defines the per-country e-invoicing compliance record
// and the provider contract that produces it. The rest of the system treats
// a record as opaque apart from its reference URLs.
package compliance

import (
	"context"
	"time"
)

// Reference is one legal or technical link attached to a record.
type Reference struct {
	Kind  string `json:"kind"` // format-spec | legislation | news
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Record is the compliance status of one country.
type Record struct {
	ID               string      `json:"id"` // ISO 3166-1 alpha-3
	Name             string      `json:"name"`
	EInvoicingStatus string      `json:"einvoicing_status"`
	References       []Reference `json:"references"`
	// SourceUpdatedAt is when the underlying source last changed; it feeds
	// the override freshness comparison.
	SourceUpdatedAt time.Time `json:"source_updated_at"`
	LastRefreshed   time.Time `json:"last_refreshed"`
}

// ReferenceURLs collects every reference URL on the record.
func (r *Record) ReferenceURLs() []string {
	urls := make([]string, 0, len(r.References))
	for _, ref := range r.References {
		if ref.URL != "" {
			urls = append(urls, ref.URL)
		}
	}
	return urls
}

// Provider supplies and refreshes compliance records.
type Provider interface {
	// Record returns the current record for id, or apperr.ErrNotFound.
	Record(ctx context.Context, id string) (*Record, error)
	// GenerateFallback builds a minimal placeholder record for a country the
	// provider has no data for yet.
	GenerateFallback(name, id string) *Record
	// Refresh re-derives the record for id from the underlying source and
	// returns the updated record.
	Refresh(ctx context.Context, id string) (*Record, error)
	// ListAllKnownIDs returns every country id the provider knows about.
	ListAllKnownIDs(ctx context.Context) ([]string, error)
}
