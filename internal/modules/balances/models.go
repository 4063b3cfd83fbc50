package balances

import "time"

// Balance is a user's cash position
type Balance struct {
	UserID      int64     `json:"user_id"`
	CashBalance float64   `json:"cash_balance"`
	LastUpdated time.Time `json:"last_updated"`
}
