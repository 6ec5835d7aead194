// Package override stores curator-supplied replacement links for country
// compliance references. An override is keyed by the (country code, original
// URL, link kind) tuple; at most one active entry exists per tuple, and
// deletion is always soft so curation history survives.
package override

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Link kinds recognised by the curation UI.
const (
	KindFormatSpec  = "format-spec"
	KindLegislation = "legislation"
	KindNews        = "news"
)

// Entry is one curated link override.
type Entry struct {
	ID           string    `json:"id"`
	CountryCode  string    `json:"country_code"`
	Kind         string    `json:"kind"`
	OriginalURL  string    `json:"original_url"`
	CustomURL    string    `json:"custom_url"`
	Title        string    `json:"title"`
	Notes        string    `json:"notes,omitempty"`
	DateProvided time.Time `json:"date_provided"`
	LastUpdated  time.Time `json:"last_updated"`
	Active       bool      `json:"active"`
}

// CreateRequest carries the curator input for creating or updating an
// override. The tuple fields identify the entry; the rest are its payload.
type CreateRequest struct {
	CountryCode string `json:"country_code"`
	Kind        string `json:"kind"`
	OriginalURL string `json:"original_url"`
	CustomURL   string `json:"custom_url"`
	Title       string `json:"title"`
	Notes       string `json:"notes,omitempty"`
}

// Validate validates the create request.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CountryCode, validation.Required, validation.Length(2, 3)),
		validation.Field(&r.Kind, validation.Required, validation.In(KindFormatSpec, KindLegislation, KindNews)),
		validation.Field(&r.OriginalURL, validation.Required, is.URL),
		validation.Field(&r.CustomURL, validation.Required, is.URL),
		validation.Field(&r.Title, validation.Required),
	)
}

// Repository is the durable backing collection of override entries. Load and
// Save move the whole collection; Save must be atomic from the caller's
// perspective (no partial writes observable).
type Repository interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
}
