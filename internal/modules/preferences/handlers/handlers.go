// Package handlers provides HTTP handlers for user preferences.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/preferences"
	"github.com/apetros/paperbroker/internal/modules/sessions"
)

// Handler handles preference HTTP requests
type Handler struct {
	service *preferences.Service
	log     zerolog.Logger
}

// NewHandler creates a new preferences handler
func NewHandler(service *preferences.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "preferences").Logger(),
	}
}

// HandleGet returns the caller's preferences
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	prefs, err := h.service.Get(userID)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, prefs)
}

// HandleUpdate applies a partial preferences change
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	var update preferences.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	prefs, err := h.service.Update(userID, update)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, prefs)
}
