package portfolio

import (
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/history"
)

// Valuation is the read-time summary of a user's account. Market
// values use the latest recorded close, falling back to average cost
// for symbols with no price observations.
type Valuation struct {
	UserID        int64           `json:"user_id"`
	CashBalance   float64         `json:"cash_balance"`
	PositionCount int             `json:"position_count"`
	MarketValue   float64         `json:"market_value"`
	TotalValue    float64         `json:"total_value"`
	Positions     []ValuedHolding `json:"positions"`
}

// ValuedHolding is a position with its derived market value
type ValuedHolding struct {
	Position
	LastPrice   float64 `json:"last_price"`
	MarketValue float64 `json:"market_value"`
	PriceKnown  bool    `json:"price_known"`
}

// Service exposes portfolio reads and account valuation
type Service struct {
	positions *PositionRepository
	balances  *balances.Repository
	prices    *history.Repository
	log       zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	positions *PositionRepository,
	balanceRepo *balances.Repository,
	prices *history.Repository,
	log zerolog.Logger,
) *Service {
	return &Service{
		positions: positions,
		balances:  balanceRepo,
		prices:    prices,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// GetPositions returns a user's open positions
func (s *Service) GetPositions(userID int64) ([]Position, error) {
	return s.positions.GetAll(userID)
}

// GetPosition returns a user's position in one symbol, or nil
func (s *Service) GetPosition(userID int64, symbol string) (*Position, error) {
	return s.positions.Get(userID, symbol)
}

// Value computes the account valuation: cash plus the market value of
// every open position.
func (s *Service) Value(userID int64) (*Valuation, error) {
	balance, err := s.balances.Get(userID)
	if err != nil {
		return nil, err
	}

	positions, err := s.positions.GetAll(userID)
	if err != nil {
		return nil, err
	}

	valuation := &Valuation{
		UserID:        userID,
		CashBalance:   balance.CashBalance,
		PositionCount: len(positions),
		Positions:     make([]ValuedHolding, 0, len(positions)),
	}

	for _, p := range positions {
		holding := ValuedHolding{Position: p, LastPrice: p.AvgCost}

		lastClose, err := s.prices.LatestClose(p.Symbol)
		if err != nil {
			return nil, err
		}
		if lastClose != nil {
			holding.LastPrice = *lastClose
			holding.PriceKnown = true
		}

		holding.MarketValue = p.Shares * holding.LastPrice
		valuation.MarketValue += holding.MarketValue
		valuation.Positions = append(valuation.Positions, holding)
	}

	valuation.TotalValue = valuation.CashBalance + valuation.MarketValue
	return valuation, nil
}
