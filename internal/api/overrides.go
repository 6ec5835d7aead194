package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/override"
)

// ListOverrides handles GET /api/overrides with an optional country filter.
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	entries := h.overrides.List(r.URL.Query().Get("country"))
	writeJSON(w, http.StatusOK, OverrideListResponse{Overrides: entries, Total: len(entries)})
}

// CreateOverride handles POST /api/overrides. Creating for a tuple that
// already has an active entry updates it in place (same id).
func (h *Handler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req override.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	entry, err := h.overrides.CreateOrUpdate(req)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody("conflicting active override"))
			return
		}
		slog.Error("create override failed",
			slog.String("country", req.CountryCode), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// DeleteOverride handles DELETE /api/overrides/{id} (soft delete).
func (h *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	changed, err := h.overrides.Delete(id)
	if err != nil {
		slog.Error("delete override failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if !changed {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveOverride handles GET /api/overrides/resolve. Query params identify
// the tuple; source_updated (RFC 3339), when present, is the freshness
// signal for the preference verdict.
func (h *Handler) ResolveOverride(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	url := q.Get("url")
	kind := q.Get("kind")
	if country == "" || url == "" || kind == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("country, url and kind are required"))
		return
	}

	var sourceUpdated *time.Time
	if raw := q.Get("source_updated"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("source_updated must be RFC 3339"))
			return
		}
		sourceUpdated = &t
	}

	resp := ResolveResponse{}
	if custom, ok := h.overrides.Resolve(country, url, kind); ok {
		resp.CustomURL = custom
		resp.Found = true
	}
	resp.PreferOverride = h.overrides.ShouldPreferOverride(country, url, kind, sourceUpdated)
	writeJSON(w, http.StatusOK, resp)
}
