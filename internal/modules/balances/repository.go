// Package balances tracks each user's cash. Mutations happen inside
// the trade transaction, so write methods take the caller's *sql.Tx.
package balances

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// Repository handles balance rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new balances repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "balances").Logger(),
	}
}

// InitializeTx endows a newly registered user inside the registration
// transaction.
func (r *Repository) InitializeTx(tx *sql.Tx, userID int64, startingCash float64) error {
	query := `INSERT INTO balances (user_id, cash_balance, last_updated) VALUES (?, ?, ?)`
	if _, err := tx.Exec(query, userID, startingCash, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to initialize balance: %w", err)
	}
	return nil
}

// Get retrieves a user's cash balance
func (r *Repository) Get(userID int64) (*Balance, error) {
	return scanBalance(r.db.QueryRow(
		`SELECT user_id, cash_balance, last_updated FROM balances WHERE user_id = ?`, userID))
}

// GetTx retrieves a user's cash balance inside a transaction
func (r *Repository) GetTx(tx *sql.Tx, userID int64) (*Balance, error) {
	return scanBalance(tx.QueryRow(
		`SELECT user_id, cash_balance, last_updated FROM balances WHERE user_id = ?`, userID))
}

// AdjustTx applies a signed delta to the cash balance inside a
// transaction. Negative deltas debit, positive deltas credit.
func (r *Repository) AdjustTx(tx *sql.Tx, userID int64, delta float64) error {
	result, err := tx.Exec(
		`UPDATE balances SET cash_balance = cash_balance + ?, last_updated = ? WHERE user_id = ?`,
		delta, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance adjustment: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func scanBalance(row *sql.Row) (*Balance, error) {
	var b Balance
	var lastUpdated int64

	err := row.Scan(&b.UserID, &b.CashBalance, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	b.LastUpdated = time.Unix(lastUpdated, 0).UTC()
	return &b, nil
}
