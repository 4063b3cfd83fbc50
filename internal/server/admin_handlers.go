package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/sessions"
)

// handleGetConfig returns every runtime config value
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	values, err := s.settings.GetAll()
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, values)
}

// setConfigRequest carries one config value
type setConfigRequest struct {
	Value string `json:"value"`
}

// handleSetConfig upserts a runtime config value
func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	userID, _ := sessions.UserIDFrom(r.Context())

	var req setConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.settings.Set(key, req.Value, userID); err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

// handleGetActivity returns the activity trail, newest first. An
// optional user_id query narrows to one user.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
		userID = parsed
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := s.auditRepo.RecentActivity(userID, limit)
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleDeactivateUser disables an account and revokes every one of
// its sessions, so outstanding tokens stop working immediately.
func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := s.accounts.Deactivate(userID); err != nil {
		api.WriteError(w, s.log, err)
		return
	}
	if err := s.sessions.RevokeAll(userID); err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"active":  false,
	})
}

// handleListBackups returns recorded backups, newest first
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.backupLogs.Recent(50)
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"backups": backups,
		"count":   len(backups),
	})
}

// handleTriggerBackup runs a backup immediately
func (s *Server) handleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	result, err := s.backupService.CreateBackup(r.Context())
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, result)
}
