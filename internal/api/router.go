package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Countries.
	r.Get("/countries", h.ListCountries)
	r.Get("/countries/{id}", h.GetCountry)

	// Refresh orchestration.
	r.Post("/refresh", h.StartRefresh)
	r.Get("/refresh", h.RefreshStatus)
	r.Get("/refresh/background", h.BackgroundStatus)
	r.Delete("/refresh/background", h.CancelBackground)

	// Curated link overrides.
	r.Get("/overrides", h.ListOverrides)
	r.Post("/overrides", h.CreateOverride)
	r.Get("/overrides/resolve", h.ResolveOverride)
	r.Delete("/overrides/{id}", h.DeleteOverride)

	// Link health.
	r.Post("/links/check", h.CheckLinks)
	r.Get("/links/status", h.LinkStatus)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
