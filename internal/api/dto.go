package api

import (
	"time"

	"github.com/starford/raido/internal/linkresolver"
	"github.com/starford/raido/internal/override"
)

// CountryListItem is a lightweight item in the country list response.
type CountryListItem struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	EInvoicingStatus string    `json:"einvoicing_status"`
	ReferenceCount   int       `json:"reference_count"`
	LastRefreshed    time.Time `json:"last_refreshed"`
}

// CountryListResponse wraps the country list.
type CountryListResponse struct {
	Countries []CountryListItem `json:"countries"`
	Total     int               `json:"total"`
}

// CountryDetail is one country with display-ready reference links.
type CountryDetail struct {
	ID               string                           `json:"id"`
	Name             string                           `json:"name"`
	EInvoicingStatus string                           `json:"einvoicing_status"`
	References       []linkresolver.ResolvedReference `json:"references"`
	SourceUpdatedAt  time.Time                        `json:"source_updated_at"`
	LastRefreshed    time.Time                        `json:"last_refreshed"`
}

// RefreshRequest starts a refresh cycle; Visible lists the country ids
// currently in view, which get the foreground phase.
type RefreshRequest struct {
	Visible []string `json:"visible"`
}

// OverrideListResponse wraps override listings.
type OverrideListResponse struct {
	Overrides []override.Entry `json:"overrides"`
	Total     int              `json:"total"`
}

// ResolveResponse is the answer to an override resolution query.
type ResolveResponse struct {
	CustomURL      string `json:"custom_url,omitempty"`
	Found          bool   `json:"found"`
	PreferOverride bool   `json:"prefer_override"`
}

// CheckLinksRequest asks for a batch reachability check.
type CheckLinksRequest struct {
	URLs []string `json:"urls"`
}
