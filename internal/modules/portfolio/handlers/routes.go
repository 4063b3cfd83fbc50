package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleGetPositions)
		r.Get("/valuation", h.HandleGetValuation)
		r.Get("/{symbol}", h.HandleGetPosition)
	})
	r.Get("/balance", h.HandleGetBalance)
}
