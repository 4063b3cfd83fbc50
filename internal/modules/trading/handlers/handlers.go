// Package handlers provides HTTP handlers for trade execution.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/sessions"
	"github.com/apetros/paperbroker/internal/modules/trading"
)

// Handler handles trading HTTP requests
type Handler struct {
	tradingService *trading.Service
	log            zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(tradingService *trading.Service, log zerolog.Logger) *Handler {
	return &Handler{
		tradingService: tradingService,
		log:            log.With().Str("handler", "trading").Logger(),
	}
}

// HandleExecuteTrade runs one trade for the caller
func (h *Handler) HandleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	var req trading.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	confirmation, err := h.tradingService.Execute(userID, req)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, confirmation)
}
