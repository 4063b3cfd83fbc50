package sessions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles session rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new sessions repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "sessions").Logger(),
	}
}

// CreateTx inserts a new session inside the login transaction
func (r *Repository) CreateTx(tx *sql.Tx, session *Session) error {
	query := `INSERT INTO sessions (user_id, token, created_at, expires_at) VALUES (?, ?, ?, ?)`

	result, err := tx.Exec(query,
		session.UserID,
		session.Token,
		session.CreatedAt.Unix(),
		session.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get new session id: %w", err)
	}
	session.ID = id

	return nil
}

// GetLive retrieves a session by token if it has not expired and the
// owning account is still active. Returns nil for unknown, expired,
// and deactivated-user tokens alike.
func (r *Repository) GetLive(token string, now time.Time) (*Session, error) {
	query := `
		SELECT s.id, s.user_id, s.token, s.created_at, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ? AND u.is_active = 1
	`

	var s Session
	var createdAt, expiresAt int64
	err := r.db.QueryRow(query, token, now.Unix()).Scan(
		&s.ID, &s.UserID, &s.Token, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &s, nil
}

// DeleteByToken removes a single session. Returns true when a row was
// deleted.
func (r *Repository) DeleteByToken(token string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check session deletion: %w", err)
	}
	return rows > 0, nil
}

// DeleteForUser revokes every session a user holds
func (r *Repository) DeleteForUser(userID int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes sessions past their expiry and returns the count
func (r *Repository) DeleteExpired(now time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
