// Package ledger is the append-only record of executed trades.
// Entries are never updated or deleted.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// Repository handles ledger rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// entryColumns is the column list for the ledger_entries table.
// Order must match scanEntries.
const entryColumns = `id, order_id, user_id, symbol, side, shares, price, total_amount, commission, executed_at`

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// AppendTx records an executed trade inside the trade transaction
func (r *Repository) AppendTx(tx *sql.Tx, entry *Entry) error {
	query := `
		INSERT INTO ledger_entries
		(order_id, user_id, symbol, side, shares, price, total_amount, commission, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.Exec(query,
		entry.OrderID,
		entry.UserID,
		entry.Symbol,
		string(entry.Side),
		entry.Shares,
		entry.Price,
		entry.TotalAmount,
		entry.Commission,
		entry.ExecutedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ledger entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// History returns a user's trades, most recent first. A limit of zero
// or less returns the full history.
func (r *Repository) History(userID int64, limit int) ([]Entry, error) {
	query := "SELECT " + entryColumns + ` FROM ledger_entries
		WHERE user_id = ? ORDER BY executed_at DESC, id DESC`
	args := []interface{}{userID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// HistoryForSymbol returns a user's trades in one symbol, most recent first
func (r *Repository) HistoryForSymbol(userID int64, symbol string, limit int) ([]Entry, error) {
	query := "SELECT " + entryColumns + ` FROM ledger_entries
		WHERE user_id = ? AND symbol = ? ORDER BY executed_at DESC, id DESC`
	args := []interface{}{userID, domain.NormalizeSymbol(symbol)}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol trade history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CountForUser returns the number of ledger entries a user has
func (r *Repository) CountForUser(userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var side string
		var executedAt int64

		err := rows.Scan(
			&e.ID, &e.OrderID, &e.UserID, &e.Symbol, &side,
			&e.Shares, &e.Price, &e.TotalAmount, &e.Commission, &executedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		e.Side = domain.Side(side)
		e.ExecutedAt = time.Unix(executedAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
