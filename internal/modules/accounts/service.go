package accounts

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/domain"
	"github.com/apetros/paperbroker/internal/events"
	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/preferences"
)

// Service owns account lifecycle. Registration creates the user row,
// the cash endowment, and default preferences in one transaction so a
// user never exists half-provisioned.
type Service struct {
	db           *database.DB
	users        *Repository
	balances     *balances.Repository
	prefs        *preferences.Repository
	events       *events.Manager
	startingCash float64
	log          zerolog.Logger
}

// NewService creates a new accounts service
func NewService(
	db *database.DB,
	users *Repository,
	balanceRepo *balances.Repository,
	prefsRepo *preferences.Repository,
	eventManager *events.Manager,
	startingCash float64,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:           db,
		users:        users,
		balances:     balanceRepo,
		prefs:        prefsRepo,
		events:       eventManager,
		startingCash: startingCash,
		log:          log.With().Str("service", "accounts").Logger(),
	}
}

// Register provisions a new account. Username and email must be
// unused; the password is stored as a bcrypt digest only.
func (s *Service) Register(req RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	err = database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		id, err := s.users.CreateTx(tx, user)
		if err != nil {
			return err
		}
		user.ID = id

		if err := s.balances.InitializeTx(tx, id, s.startingCash); err != nil {
			return err
		}
		return s.prefs.InitializeTx(tx, id)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Float64("starting_cash", s.startingCash).
		Msg("User registered")

	if s.events != nil {
		s.events.Emit("accounts", &events.UserRegisteredData{
			UserID:   user.ID,
			Username: user.Username,
		})
	}

	return user, nil
}

// VerifyCredentials checks a username/password pair. Unknown user,
// wrong password, and deactivated account all return the same error.
func (s *Service) VerifyCredentials(username, password string) (*User, error) {
	user, err := s.users.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		// Burn a comparison anyway so timing does not reveal
		// whether the username exists.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Get returns a user by ID
func (s *Service) Get(userID int64) (*User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// TouchLastLoginTx records a successful login inside the login
// transaction.
func (s *Service) TouchLastLoginTx(tx *sql.Tx, userID int64) error {
	return s.users.TouchLastLoginTx(tx, userID, time.Now().UTC())
}

// Deactivate soft-disables an account. Existing sessions stop
// validating immediately; the caller should also revoke them.
func (s *Service) Deactivate(userID int64) error {
	if err := s.users.Deactivate(userID); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Msg("Account deactivated")
	return nil
}

// dummyHash is a valid bcrypt digest of a random string, used to keep
// the failure path's timing in line with the success path.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
