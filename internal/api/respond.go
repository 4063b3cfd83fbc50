// Package api holds the response helpers shared by every handler
// package: JSON writing and the single mapping from domain errors to
// HTTP status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// WriteJSON writes a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError maps a service error to its HTTP response. Unclassified
// errors become 500s with a generic body so internals do not leak.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		WriteJSON(w, status, map[string]string{"error": "internal error"})
		return
	}

	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor classifies a service error into an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidTradeParameters):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSessionExpiredOrInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
