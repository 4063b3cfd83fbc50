// Package preferences stores per-user display and notification
// settings. Partial updates go through the typed Update struct, never
// through caller-assembled SQL.
package preferences

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// Repository handles preference rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new preferences repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "preferences").Logger(),
	}
}

// InitializeTx creates the default preference row for a new user
// inside the registration transaction.
func (r *Repository) InitializeTx(tx *sql.Tx, userID int64) error {
	_, err := tx.Exec(`INSERT INTO preferences (user_id) VALUES (?)`, userID)
	if err != nil {
		return fmt.Errorf("failed to initialize preferences: %w", err)
	}
	return nil
}

// Get retrieves a user's preferences
func (r *Repository) Get(userID int64) (*Preferences, error) {
	query := `
		SELECT user_id, dark_mode, default_timeframe, default_chart_type, notifications_enabled
		FROM preferences WHERE user_id = ?
	`

	var p Preferences
	var darkMode, notifications int
	err := r.db.QueryRow(query, userID).Scan(
		&p.UserID, &darkMode, &p.DefaultTimeframe, &p.DefaultChartType, &notifications)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	p.DarkMode = darkMode != 0
	p.NotificationsEnabled = notifications != 0
	return &p, nil
}

// Apply writes the non-nil fields of an update. The SET clause is
// built from this fixed column whitelist only.
func (r *Repository) Apply(userID int64, update Update) error {
	if update.IsEmpty() {
		return nil
	}

	var assignments []string
	var args []interface{}

	if update.DarkMode != nil {
		assignments = append(assignments, "dark_mode = ?")
		args = append(args, boolToInt(*update.DarkMode))
	}
	if update.DefaultTimeframe != nil {
		assignments = append(assignments, "default_timeframe = ?")
		args = append(args, *update.DefaultTimeframe)
	}
	if update.DefaultChartType != nil {
		assignments = append(assignments, "default_chart_type = ?")
		args = append(args, *update.DefaultChartType)
	}
	if update.NotificationsEnabled != nil {
		assignments = append(assignments, "notifications_enabled = ?")
		args = append(args, boolToInt(*update.NotificationsEnabled))
	}

	args = append(args, userID)
	query := "UPDATE preferences SET " + strings.Join(assignments, ", ") + " WHERE user_id = ?"

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check preferences update: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	r.log.Debug().
		Int64("user_id", userID).
		Strs("fields", update.Fields()).
		Msg("Preferences updated")

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
