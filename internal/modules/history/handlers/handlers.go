// Package handlers provides HTTP handlers for price history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/history"
)

// Handler handles price history HTTP requests
type Handler struct {
	repo *history.Repository
	log  zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(repo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "history").Logger(),
	}
}

// RecordCandleRequest is one reported price observation
type RecordCandleRequest struct {
	Symbol string  `json:"symbol"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// HandleRecordCandle stores a reported candle
func (h *Handler) HandleRecordCandle(w http.ResponseWriter, r *http.Request) {
	var req RecordCandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Symbol == "" || req.Close <= 0 {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol and a positive close are required"})
		return
	}

	candle := &history.Candle{
		Symbol:     req.Symbol,
		Open:       req.Open,
		High:       req.High,
		Low:        req.Low,
		Close:      req.Close,
		Volume:     req.Volume,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.repo.Save(candle); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, candle)
}

// HandleGetHistory returns recorded candles for a symbol, newest first
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	candles, err := h.repo.GetHistory(symbol, limit)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"candles": candles,
		"count":   len(candles),
	})
}
