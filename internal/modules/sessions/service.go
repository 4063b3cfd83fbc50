// Package sessions issues and validates bearer tokens. Tokens are
// random, not derived from user data, and live for a configurable TTL.
package sessions

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/domain"
	"github.com/apetros/paperbroker/internal/events"
	"github.com/apetros/paperbroker/internal/modules/accounts"
)

// tokenBytes is the entropy of a session token. 32 bytes hex-encoded
// gives a 64-character opaque token.
const tokenBytes = 32

// Service authenticates users and manages their sessions
type Service struct {
	db       *database.DB
	repo     *Repository
	accounts *accounts.Service
	events   *events.Manager
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates a new sessions service
func NewService(
	db *database.DB,
	repo *Repository,
	accountsService *accounts.Service,
	eventManager *events.Manager,
	ttl time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		accounts: accountsService,
		events:   eventManager,
		ttl:      ttl,
		log:      log.With().Str("service", "sessions").Logger(),
	}
}

// Login verifies credentials and issues a fresh session token
func (s *Service) Login(username, password string) (*LoginResult, error) {
	user, err := s.accounts.VerifyCredentials(username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) && s.events != nil {
			s.events.Emit("sessions", &events.LoginFailedData{Username: username})
		}
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &Session{
		UserID:    user.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	// Session insert and last-login update commit together
	err = database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if err := s.repo.CreateTx(tx, session); err != nil {
			return err
		}
		return s.accounts.TouchLastLoginTx(tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("Login succeeded")
	if s.events != nil {
		s.events.Emit("sessions", &events.LoginSucceededData{
			UserID:   user.ID,
			Username: user.Username,
		})
	}

	return &LoginResult{
		UserID:    user.ID,
		Username:  user.Username,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Validate resolves a bearer token to its user ID. Expired and unknown
// tokens are indistinguishable to the caller.
func (s *Service) Validate(token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrSessionExpiredOrInvalid
	}

	session, err := s.repo.GetLive(token, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, domain.ErrSessionExpiredOrInvalid
	}

	return session.UserID, nil
}

// Logout revokes a single session. Revoking an already-dead token is
// not an error.
func (s *Service) Logout(token string) error {
	_, err := s.repo.DeleteByToken(token)
	return err
}

// RevokeAll drops every session a user holds
func (s *Service) RevokeAll(userID int64) error {
	removed, err := s.repo.DeleteForUser(userID)
	if err != nil {
		return err
	}
	if removed > 0 && s.events != nil {
		s.events.Emit("sessions", &events.SessionRevokedData{UserID: userID})
	}
	return nil
}

// SweepExpired removes dead sessions and reports how many were dropped
func (s *Service) SweepExpired() (int64, error) {
	removed, err := s.repo.DeleteExpired(time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("Swept expired sessions")
		if s.events != nil {
			s.events.Emit("sessions", &events.SessionsSweptData{Removed: removed})
		}
	}

	return removed, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
