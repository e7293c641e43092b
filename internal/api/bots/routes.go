package bots

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chatbot management routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/bots", func(r chi.Router) {
		r.Post("/", h.CreateBot)
		r.Get("/", h.ListBots)
		r.Post("/{title}/api-key", h.MintAPIKey)
	})
}
