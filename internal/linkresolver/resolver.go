// Package linkresolver combines the override store and the link health
// cache into the per-link view the UI renders: which URL to show for a
// reference, whether it is curated, and what the last probe said about it.
package linkresolver

import (
	"time"

	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/override"
)

// ResolvedReference is one reference link ready for display.
type ResolvedReference struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	OriginalURL string `json:"original_url"`
	// EffectiveURL is what the UI should link to: the curated override when
	// it wins the freshness comparison, the original otherwise.
	EffectiveURL string `json:"effective_url"`
	Overridden   bool   `json:"overridden"`
	// Classification is the cached probe outcome for the effective URL;
	// empty when it has never been checked.
	Classification string     `json:"classification,omitempty"`
	CheckedAt      *time.Time `json:"checked_at,omitempty"`
}

// Resolver resolves reference links against overrides and cached health.
type Resolver struct {
	overrides *override.Store
	links     *linkhealth.Cache
}

// New creates a Resolver.
func New(overrides *override.Store, links *linkhealth.Cache) *Resolver {
	return &Resolver{overrides: overrides, links: links}
}

// Resolve builds the display view of one reference for a country. The
// record's SourceUpdatedAt, when known, is the freshness signal that can
// disqualify a stale override.
func (r *Resolver) Resolve(countryCode string, ref compliance.Reference, sourceUpdated time.Time) ResolvedReference {
	out := ResolvedReference{
		Kind:         ref.Kind,
		Title:        ref.Title,
		OriginalURL:  ref.URL,
		EffectiveURL: ref.URL,
	}

	var signal *time.Time
	if !sourceUpdated.IsZero() {
		signal = &sourceUpdated
	}
	if r.overrides.ShouldPreferOverride(countryCode, ref.URL, ref.Kind, signal) {
		if custom, ok := r.overrides.Resolve(countryCode, ref.URL, ref.Kind); ok {
			out.EffectiveURL = custom
			out.Overridden = true
		}
	}

	if status, ok := r.links.Cached(out.EffectiveURL); ok {
		out.Classification = string(status.Classification)
		checked := status.CheckedAt
		out.CheckedAt = &checked
	}
	return out
}

// ResolveRecord resolves every reference on a record.
func (r *Resolver) ResolveRecord(rec *compliance.Record) []ResolvedReference {
	out := make([]ResolvedReference, 0, len(rec.References))
	for _, ref := range rec.References {
		out = append(out, r.Resolve(rec.ID, ref, rec.SourceUpdatedAt))
	}
	return out
}
