package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// Repository handles user rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// usersColumns is the column list for the users table.
// Order must match scanUser.
const usersColumns = `id, username, email, password_hash, first_name, last_name, is_active, created_at, last_login`

// NewRepository creates a new accounts repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// CreateTx inserts a user inside an existing transaction and returns
// the assigned ID. A UNIQUE violation on username or email maps to
// domain.ErrDuplicateIdentity.
func (r *Repository) CreateTx(tx *sql.Tx, user *User) (int64, error) {
	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
	`

	result, err := tx.Exec(query,
		user.Username,
		nullString(user.Email),
		user.PasswordHash,
		nullString(user.FirstName),
		nullString(user.LastName),
		user.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrDuplicateIdentity
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new user id: %w", err)
	}

	return id, nil
}

// GetByUsername retrieves a user by username. Returns nil when the
// user does not exist.
func (r *Repository) GetByUsername(username string) (*User, error) {
	query := "SELECT " + usersColumns + " FROM users WHERE username = ?"

	user, err := r.scanUser(r.db.QueryRow(query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by ID. Returns nil when the user does not exist.
func (r *Repository) GetByID(id int64) (*User, error) {
	query := "SELECT " + usersColumns + " FROM users WHERE id = ?"

	user, err := r.scanUser(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// TouchLastLoginTx records a successful login timestamp inside the
// login transaction.
func (r *Repository) TouchLastLoginTx(tx *sql.Tx, userID int64, at time.Time) error {
	_, err := tx.Exec("UPDATE users SET last_login = ? WHERE id = ?", at.Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Deactivate soft-disables an account. Callers must also revoke the
// user's sessions; live-token checks reject inactive users regardless.
func (r *Repository) Deactivate(userID int64) error {
	result, err := r.db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) scanUser(row *sql.Row) (User, error) {
	var user User
	var email, firstName, lastName sql.NullString
	var isActive int
	var createdAt int64
	var lastLogin sql.NullInt64

	err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&firstName,
		&lastName,
		&isActive,
		&createdAt,
		&lastLogin,
	)
	if err != nil {
		return User{}, err
	}

	user.Email = email.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.IsActive = isActive != 0
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0).UTC()
		user.LastLogin = &t
	}

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation detects SQLite UNIQUE constraint failures without
// tying the repository to a single driver's error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
