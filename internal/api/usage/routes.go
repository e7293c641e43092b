package usage

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers token usage routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/usage", func(r chi.Router) {
		r.Get("/", h.GetTenantUsage)
		r.Get("/report", h.GetReport)
		r.Get("/{title}", h.GetBotUsage)
	})
}
