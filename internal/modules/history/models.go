package history

import "time"

// Candle is one OHLCV observation for a symbol
type Candle struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     int64     `json:"volume"`
	RecordedAt time.Time `json:"recorded_at"`
}
