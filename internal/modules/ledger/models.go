package ledger

import (
	"time"

	"github.com/apetros/paperbroker/internal/domain"
)

// Entry is one executed trade in the immutable ledger
type Entry struct {
	ID          int64       `json:"id"`
	OrderID     string      `json:"order_id"`
	UserID      int64       `json:"user_id"`
	Symbol      string      `json:"symbol"`
	Side        domain.Side `json:"side"`
	Shares      float64     `json:"shares"`
	Price       float64     `json:"price"`
	TotalAmount float64     `json:"total_amount"`
	Commission  float64     `json:"commission"`
	ExecutedAt  time.Time   `json:"executed_at"`
}
