// Package handlers provides HTTP handlers for trade history reads.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/ledger"
	"github.com/apetros/paperbroker/internal/modules/sessions"
)

// defaultHistoryLimit bounds history responses when the caller gives
// no limit.
const defaultHistoryLimit = 50

// Handler handles ledger HTTP requests
type Handler struct {
	repo *ledger.Repository
	log  zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(repo *ledger.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetHistory returns the caller's trade history, newest first
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	entries, err := h.repo.History(userID, parseLimit(r))
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"trades": entries,
		"count":  len(entries),
	})
}

// HandleGetSymbolHistory returns the caller's trades in one symbol
func (h *Handler) HandleGetSymbolHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())
	symbol := chi.URLParam(r, "symbol")

	entries, err := h.repo.HistoryForSymbol(userID, symbol, parseLimit(r))
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"trades": entries,
		"count":  len(entries),
	})
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return defaultHistoryLimit
	}
	return limit
}
