package rag

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the knowledge base routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/rag", func(r chi.Router) {
		r.Post("/docs", h.IngestDocs)
		r.Post("/ask", h.Ask)
		r.Post("/flush", h.Flush)
	})
}
