// Package server provides the HTTP surface of the brokerage engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/config"
	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/modules/accounts"
	"github.com/apetros/paperbroker/internal/modules/audit"
	historyhandlers "github.com/apetros/paperbroker/internal/modules/history/handlers"
	ledgerhandlers "github.com/apetros/paperbroker/internal/modules/ledger/handlers"
	portfoliohandlers "github.com/apetros/paperbroker/internal/modules/portfolio/handlers"
	preferencehandlers "github.com/apetros/paperbroker/internal/modules/preferences/handlers"
	"github.com/apetros/paperbroker/internal/modules/roles"
	"github.com/apetros/paperbroker/internal/modules/sessions"
	"github.com/apetros/paperbroker/internal/modules/settings"
	tradinghandlers "github.com/apetros/paperbroker/internal/modules/trading/handlers"
	"github.com/apetros/paperbroker/internal/reliability"
)

// Config holds everything the server needs to route requests
type Config struct {
	Log             zerolog.Logger
	Cfg             *config.Config
	DB              *database.DB
	Accounts        *accounts.Service
	Sessions        *sessions.Service
	Roles           *roles.Repository
	Settings        *settings.Repository
	AuditRepo       *audit.Repository
	BackupService   *reliability.BackupService
	BackupLogs      *reliability.BackupLogRepository
	Portfolio       *portfoliohandlers.Handler
	Trading         *tradinghandlers.Handler
	Ledger          *ledgerhandlers.Handler
	Preferences     *preferencehandlers.Handler
	History         *historyhandlers.Handler
}

// Server is the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	db             *database.DB
	accounts       *accounts.Service
	sessions       *sessions.Service
	roles          *roles.Repository
	settings       *settings.Repository
	auditRepo      *audit.Repository
	backupService  *reliability.BackupService
	backupLogs     *reliability.BackupLogRepository
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		cfg:           cfg.Cfg,
		db:            cfg.DB,
		accounts:      cfg.Accounts,
		sessions:      cfg.Sessions,
		roles:         cfg.Roles,
		settings:      cfg.Settings,
		auditRepo:     cfg.AuditRepo,
		backupService: cfg.BackupService,
		backupLogs:    cfg.BackupLogs,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Cfg.DataDir, cfg.DB)

	s.setupMiddleware()
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes wires the public, authenticated, and admin route groups
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Everything else requires a live session
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			cfg.Portfolio.RegisterRoutes(r)
			cfg.Trading.RegisterRoutes(r)
			cfg.Ledger.RegisterRoutes(r)
			cfg.Preferences.RegisterRoutes(r)
			cfg.History.RegisterRoutes(r)

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/system/store", s.systemHandlers.HandleStoreStats)

			// Admin surface, gated on the admin permission
			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission("system.administer"))

				r.Get("/admin/config", s.handleGetConfig)
				r.Put("/admin/config/{key}", s.handleSetConfig)
				r.Get("/admin/activity", s.handleGetActivity)
				r.Post("/admin/users/{id}/deactivate", s.handleDeactivateUser)
				r.Get("/admin/backups", s.handleListBackups)
				r.Post("/admin/backups", s.handleTriggerBackup)
			})
		})
	})
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs each request and feeds the access trail
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", duration).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")

		if s.auditRepo != nil {
			userID, _ := sessions.UserIDFrom(r.Context())
			entry := audit.AccessEntry{
				UserID:         userID,
				IPAddress:      r.RemoteAddr,
				RequestMethod:  r.Method,
				RequestPath:    r.URL.Path,
				ResponseStatus: ww.Status(),
				ResponseTimeMS: duration.Milliseconds(),
				CreatedAt:      start.UTC(),
			}
			if err := s.auditRepo.RecordAccess(entry); err != nil {
				s.log.Warn().Err(err).Msg("Failed to record access log")
			}
		}
	})
}
