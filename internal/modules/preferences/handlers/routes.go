package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all preference routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/preferences", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Patch("/", h.HandleUpdate)
	})
}
