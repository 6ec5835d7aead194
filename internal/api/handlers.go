package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/linkresolver"
	"github.com/starford/raido/internal/override"
	"github.com/starford/raido/internal/refresh"
)

// Handler holds API route handlers and their collaborators.
type Handler struct {
	provider  compliance.Provider
	overrides *override.Store
	links     *linkhealth.Cache
	resolver  *linkresolver.Resolver
	orch      *refresh.Orchestrator
}

// NewHandler creates a new Handler.
func NewHandler(provider compliance.Provider, overrides *override.Store, links *linkhealth.Cache, orch *refresh.Orchestrator) *Handler {
	return &Handler{
		provider:  provider,
		overrides: overrides,
		links:     links,
		resolver:  linkresolver.New(overrides, links),
		orch:      orch,
	}
}

// ListCountries handles GET /api/countries.
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	ids, err := h.provider.ListAllKnownIDs(r.Context())
	if err != nil {
		slog.Error("list countries failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	items := make([]CountryListItem, 0, len(ids))
	for _, id := range ids {
		rec, err := h.provider.Record(r.Context(), id)
		if err != nil {
			slog.Warn("skipping unreadable country", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		items = append(items, CountryListItem{
			ID:               rec.ID,
			Name:             rec.Name,
			EInvoicingStatus: rec.EInvoicingStatus,
			ReferenceCount:   len(rec.References),
			LastRefreshed:    rec.LastRefreshed,
		})
	}
	writeJSON(w, http.StatusOK, CountryListResponse{Countries: items, Total: len(items)})
}

// GetCountry handles GET /api/countries/{id}. Each reference link comes back
// resolved: override-aware effective URL plus the cached classification.
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.provider.Record(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get country failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, CountryDetail{
		ID:               rec.ID,
		Name:             rec.Name,
		EInvoicingStatus: rec.EInvoicingStatus,
		References:       h.resolver.ResolveRecord(rec),
		SourceUpdatedAt:  rec.SourceUpdatedAt,
		LastRefreshed:    rec.LastRefreshed,
	})
}

// StartRefresh handles POST /api/refresh. The request body names the
// currently visible countries; progress streams over /api/events. Responds
// 202 once the foreground phase (including finalizing) is done, 409 when a
// cycle is already running.
func (h *Handler) StartRefresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if err := h.orch.Refresh(r.Context(), req.Visible); err != nil {
		switch {
		case errors.Is(err, apperr.ErrRefreshInProgress):
			writeJSON(w, http.StatusConflict, errorBody("refresh already in progress"))
		default:
			writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, h.orch.Status())
}

// RefreshStatus handles GET /api/refresh.
func (h *Handler) RefreshStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

// BackgroundStatus handles GET /api/refresh/background. 404 when no
// background job has run this process.
func (h *Handler) BackgroundStatus(w http.ResponseWriter, _ *http.Request) {
	st := h.orch.Status()
	if st.Background == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no background refresh"))
		return
	}
	writeJSON(w, http.StatusOK, st.Background)
}

// CancelBackground handles DELETE /api/refresh/background.
func (h *Handler) CancelBackground(w http.ResponseWriter, _ *http.Request) {
	if !h.orch.CancelBackground() {
		writeJSON(w, http.StatusNotFound, errorBody("no running background refresh"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
