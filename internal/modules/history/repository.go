// Package history stores observed price candles. The engine does not
// fetch quotes itself; callers report prices and valuation reads the
// latest close.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// Repository handles price history rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// candleColumns is the column list for the price_history table.
// Order must match the scan calls below.
const candleColumns = `id, symbol, open_price, high_price, low_price, close_price, volume, recorded_at`

// NewRepository creates a new price history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Save records one candle
func (r *Repository) Save(candle *Candle) error {
	query := `
		INSERT INTO price_history (symbol, open_price, high_price, low_price, close_price, volume, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		domain.NormalizeSymbol(candle.Symbol),
		candle.Open, candle.High, candle.Low, candle.Close,
		candle.Volume,
		candle.RecordedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save price candle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get candle id: %w", err)
	}
	candle.ID = id

	return nil
}

// GetHistory returns candles for a symbol, most recent first
func (r *Repository) GetHistory(symbol string, limit int) ([]Candle, error) {
	query := "SELECT " + candleColumns + ` FROM price_history
		WHERE symbol = ? ORDER BY recorded_at DESC, id DESC`
	args := []interface{}{domain.NormalizeSymbol(symbol)}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	candles := []Candle{}
	for rows.Next() {
		var c Candle
		var recordedAt int64
		err := rows.Scan(&c.ID, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price candle: %w", err)
		}
		c.RecordedAt = time.Unix(recordedAt, 0).UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price history: %w", err)
	}

	return candles, nil
}

// LatestClose returns the most recent close for a symbol, or nil when
// no candle has been recorded.
func (r *Repository) LatestClose(symbol string) (*float64, error) {
	var close float64
	err := r.db.QueryRow(`
		SELECT close_price FROM price_history
		WHERE symbol = ? ORDER BY recorded_at DESC, id DESC LIMIT 1
	`, domain.NormalizeSymbol(symbol)).Scan(&close)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest close: %w", err)
	}
	return &close, nil
}
