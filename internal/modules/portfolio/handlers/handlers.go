// Package handlers provides HTTP handlers for portfolio reads.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/portfolio"
	"github.com/apetros/paperbroker/internal/modules/sessions"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	portfolioService *portfolio.Service
	balanceRepo      *balances.Repository
	log              zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(
	portfolioService *portfolio.Service,
	balanceRepo *balances.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		portfolioService: portfolioService,
		balanceRepo:      balanceRepo,
		log:              log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPositions returns the caller's open positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	positions, err := h.portfolioService.GetPositions(userID)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

// HandleGetPosition returns the caller's position in one symbol
func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())
	symbol := chi.URLParam(r, "symbol")

	position, err := h.portfolioService.GetPosition(userID, symbol)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	if position == nil {
		api.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no position held"})
		return
	}

	api.WriteJSON(w, http.StatusOK, position)
}

// HandleGetBalance returns the caller's cash balance
func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	balance, err := h.balanceRepo.Get(userID)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, balance)
}

// HandleGetValuation returns the caller's full account valuation
func (h *Handler) HandleGetValuation(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	valuation, err := h.portfolioService.Value(userID)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, valuation)
}
