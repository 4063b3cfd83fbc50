package trading

import (
	"fmt"
	"time"

	"github.com/apetros/paperbroker/internal/domain"
)

// TradeRequest is an order to execute at a caller-supplied price
type TradeRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
}

// Normalize validates the request and returns its canonical form
func (req TradeRequest) Normalize() (symbol string, side domain.Side, err error) {
	symbol = domain.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return "", "", fmt.Errorf("%w: symbol is required", domain.ErrInvalidTradeParameters)
	}

	side, ok := domain.ParseSide(req.Side)
	if !ok {
		return "", "", fmt.Errorf("%w: side must be BUY or SELL", domain.ErrInvalidTradeParameters)
	}

	if req.Shares <= 0 {
		return "", "", fmt.Errorf("%w: shares must be positive", domain.ErrInvalidTradeParameters)
	}
	if req.Price <= 0 {
		return "", "", fmt.Errorf("%w: price must be positive", domain.ErrInvalidTradeParameters)
	}

	return symbol, side, nil
}

// TradeConfirmation reports a completed execution
type TradeConfirmation struct {
	OrderID     string      `json:"order_id"`
	UserID      int64       `json:"user_id"`
	Symbol      string      `json:"symbol"`
	Side        domain.Side `json:"side"`
	Shares      float64     `json:"shares"`
	Price       float64     `json:"price"`
	TotalAmount float64     `json:"total_amount"`
	Commission  float64     `json:"commission"`
	SharesAfter float64     `json:"shares_after"`
	CashAfter   float64     `json:"cash_after"`
	ExecutedAt  time.Time   `json:"executed_at"`
}
