package server

import (
	"encoding/json"
	"net/http"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/accounts"
	"github.com/apetros/paperbroker/internal/modules/sessions"
)

// handleRegister provisions a new account
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := s.accounts.Register(req)
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, user)
}

// loginRequest carries login credentials
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and issues a session token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := s.sessions.Login(req.Username, req.Password)
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// handleLogout revokes the caller's session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(bearerToken(r)); err != nil {
		api.WriteError(w, s.log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleMe returns the caller's account
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := sessions.UserIDFrom(r.Context())

	user, err := s.accounts.Get(userID)
	if err != nil {
		api.WriteError(w, s.log, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}
