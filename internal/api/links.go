package api

import (
	"encoding/json"
	"net/http"
)

// CheckLinks handles POST /api/links/check: a batch reachability probe over
// the supplied URLs. Results merge into the shared cache.
func (h *Handler) CheckLinks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CheckLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("urls is required"))
		return
	}

	results := h.links.CheckBatch(r.Context(), req.URLs)
	writeJSON(w, http.StatusOK, map[string]any{"statuses": results})
}

// LinkStatus handles GET /api/links/status?url=. A URL that was never
// checked yields 404 so callers can tell "not yet checked" from a checked
// but ambiguous "unknown".
func (h *Handler) LinkStatus(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'url' is required"))
		return
	}
	status, ok := h.links.Cached(url)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("never checked"))
		return
	}
	writeJSON(w, http.StatusOK, status)
}
