package server

import (
	"net/http"
	"strings"

	"github.com/apetros/paperbroker/internal/api"
	"github.com/apetros/paperbroker/internal/modules/sessions"
)

// authMiddleware resolves the bearer token to a user and stores the
// user ID on the request context. Requests without a live session get
// a 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)

		userID, err := s.sessions.Validate(token)
		if err != nil {
			api.WriteError(w, s.log, err)
			return
		}

		ctx := sessions.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission gates a route group on an RBAC permission
func (s *Server) requirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := sessions.UserIDFrom(r.Context())
			if !ok {
				api.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}

			allowed, err := s.roles.HasPermission(userID, permission)
			if err != nil {
				api.WriteError(w, s.log, err)
				return
			}
			if !allowed {
				api.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "permission denied"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
