// Package portfolio tracks per-user holdings. Buy and sell mutations
// run inside the trade transaction and keep the weighted-average cost
// invariant: buys re-average, sells only shrink the share count.
package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// PositionRepository handles position rows in the brokerage store
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// positionColumns is the column list for the positions table.
// Order must match scanPosition.
const positionColumns = `id, user_id, symbol, shares, avg_cost, created_at, updated_at`

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

// GetAll returns every open position a user holds, ordered by symbol
func (r *PositionRepository) GetAll(userID int64) ([]Position, error) {
	query := "SELECT " + positionColumns + ` FROM positions
		WHERE user_id = ? AND shares > 0 ORDER BY symbol`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	positions := []Position{}
	for rows.Next() {
		p, err := scanPositionFromRows(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	return positions, nil
}

// Get returns a user's position in one symbol, or nil when none is held
func (r *PositionRepository) Get(userID int64, symbol string) (*Position, error) {
	return r.getOne(r.db.QueryRow(
		"SELECT "+positionColumns+" FROM positions WHERE user_id = ? AND symbol = ? AND shares > 0",
		userID, domain.NormalizeSymbol(symbol)))
}

// GetTx returns a user's position in one symbol inside a transaction
func (r *PositionRepository) GetTx(tx *sql.Tx, userID int64, symbol string) (*Position, error) {
	return r.getOne(tx.QueryRow(
		"SELECT "+positionColumns+" FROM positions WHERE user_id = ? AND symbol = ? AND shares > 0",
		userID, domain.NormalizeSymbol(symbol)))
}

func (r *PositionRepository) getOne(row *sql.Row) (*Position, error) {
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &p, nil
}

// ApplyBuyTx folds a buy into the position inside the trade
// transaction. The new average cost is the share-weighted mean of the
// old basis and the new lot; first buys create the row.
func (r *PositionRepository) ApplyBuyTx(tx *sql.Tx, userID int64, symbol string, shares, price float64) error {
	symbol = domain.NormalizeSymbol(symbol)
	now := time.Now().Unix()

	existing, err := r.GetTx(tx, userID, symbol)
	if err != nil {
		return err
	}

	if existing == nil {
		_, err := tx.Exec(`
			INSERT INTO positions (user_id, symbol, shares, avg_cost, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, symbol) DO UPDATE SET
				shares = excluded.shares,
				avg_cost = excluded.avg_cost,
				updated_at = excluded.updated_at
		`, userID, symbol, shares, price, now, now)
		if err != nil {
			return fmt.Errorf("failed to open position: %w", err)
		}
		return nil
	}

	newShares := existing.Shares + shares
	newAvgCost := (existing.CostBasis() + shares*price) / newShares

	_, err = tx.Exec(
		`UPDATE positions SET shares = ?, avg_cost = ?, updated_at = ? WHERE user_id = ? AND symbol = ?`,
		newShares, newAvgCost, now, userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to apply buy to position: %w", err)
	}

	return nil
}

// ApplySellTx removes shares from the position inside the trade
// transaction. Selling more than is held fails; selling the full
// position deletes the row.
func (r *PositionRepository) ApplySellTx(tx *sql.Tx, userID int64, symbol string, shares float64) error {
	symbol = domain.NormalizeSymbol(symbol)

	existing, err := r.GetTx(tx, userID, symbol)
	if err != nil {
		return err
	}
	if existing == nil || existing.Shares < shares {
		return domain.ErrInsufficientShares
	}

	remaining := existing.Shares - shares
	if remaining <= 0 {
		if _, err := tx.Exec(
			`DELETE FROM positions WHERE user_id = ? AND symbol = ?`, userID, symbol); err != nil {
			return fmt.Errorf("failed to close position: %w", err)
		}
		return nil
	}

	_, err = tx.Exec(
		`UPDATE positions SET shares = ?, updated_at = ? WHERE user_id = ? AND symbol = ?`,
		remaining, time.Now().Unix(), userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to apply sell to position: %w", err)
	}

	return nil
}

func scanPosition(row *sql.Row) (Position, error) {
	var p Position
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &p.UserID, &p.Symbol, &p.Shares, &p.AvgCost, &createdAt, &updatedAt)
	if err != nil {
		return Position{}, err
	}

	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}

func scanPositionFromRows(rows *sql.Rows) (Position, error) {
	var p Position
	var createdAt, updatedAt int64

	err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.Shares, &p.AvgCost, &createdAt, &updatedAt)
	if err != nil {
		return Position{}, fmt.Errorf("failed to scan position: %w", err)
	}

	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}
