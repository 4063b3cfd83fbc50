package server

import (
	"net/http"
	"time"

	"github.com/apetros/paperbroker/internal/api"
)

// handleHealth reports liveness plus a quick store ping
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if err := s.db.QuickCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Health check store ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	api.WriteJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
