package portfolio

import "time"

// Position is a user's holding in one symbol. AvgCost is the
// weighted-average purchase price; sells never change it.
type Position struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Shares    float64   `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CostBasis returns shares times weighted-average cost
func (p Position) CostBasis() float64 {
	return p.Shares * p.AvgCost
}
