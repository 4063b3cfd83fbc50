// Package trading executes orders. Each execution is one transaction
// over balance, position, and ledger, so the account state a reader
// observes is always the result of whole trades.
package trading

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/domain"
	"github.com/apetros/paperbroker/internal/events"
	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/ledger"
	"github.com/apetros/paperbroker/internal/modules/portfolio"
)

// Service is the trade execution engine
type Service struct {
	db              *database.DB
	balances        *balances.Repository
	positions       *portfolio.PositionRepository
	ledger          *ledger.Repository
	events          *events.Manager
	commission      float64
	enforceSolvency bool
	log             zerolog.Logger
}

// NewService creates the trade execution engine
func NewService(
	db *database.DB,
	balanceRepo *balances.Repository,
	positions *portfolio.PositionRepository,
	ledgerRepo *ledger.Repository,
	eventManager *events.Manager,
	commission float64,
	enforceSolvency bool,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:              db,
		balances:        balanceRepo,
		positions:       positions,
		ledger:          ledgerRepo,
		events:          eventManager,
		commission:      commission,
		enforceSolvency: enforceSolvency,
		log:             log.With().Str("service", "trading").Logger(),
	}
}

// Execute runs one trade atomically. The cash move equals shares
// times price; the commission is recorded on the ledger entry. Any
// failure rolls the whole trade back.
func (s *Service) Execute(userID int64, req TradeRequest) (*TradeConfirmation, error) {
	symbol, side, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	totalAmount := req.Shares * req.Price
	executedAt := time.Now().UTC()

	entry := &ledger.Entry{
		OrderID:     uuid.New().String(),
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Shares:      req.Shares,
		Price:       req.Price,
		TotalAmount: totalAmount,
		Commission:  s.commission,
		ExecutedAt:  executedAt,
	}

	var cashAfter, sharesAfter float64
	err = database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		switch side {
		case domain.SideBuy:
			if s.enforceSolvency {
				balance, err := s.balances.GetTx(tx, userID)
				if err != nil {
					return err
				}
				if balance.CashBalance < totalAmount {
					return fmt.Errorf("%w: need %.2f, have %.2f",
						domain.ErrInsufficientFunds, totalAmount, balance.CashBalance)
				}
			}
			if err := s.balances.AdjustTx(tx, userID, -totalAmount); err != nil {
				return err
			}
			if err := s.positions.ApplyBuyTx(tx, userID, symbol, req.Shares, req.Price); err != nil {
				return err
			}

		case domain.SideSell:
			if err := s.positions.ApplySellTx(tx, userID, symbol, req.Shares); err != nil {
				return err
			}
			if err := s.balances.AdjustTx(tx, userID, totalAmount); err != nil {
				return err
			}
		}

		if err := s.ledger.AppendTx(tx, entry); err != nil {
			return err
		}

		balance, err := s.balances.GetTx(tx, userID)
		if err != nil {
			return err
		}
		cashAfter = balance.CashBalance

		// A fully closed position reads back as nil, so zero shares
		position, err := s.positions.GetTx(tx, userID, symbol)
		if err != nil {
			return err
		}
		if position != nil {
			sharesAfter = position.Shares
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("order_id", entry.OrderID).
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("shares", req.Shares).
		Float64("price", req.Price).
		Msg("Trade executed")

	if s.events != nil {
		s.events.Emit("trading", &events.TradeExecutedData{
			UserID:      userID,
			OrderID:     entry.OrderID,
			Symbol:      symbol,
			Side:        string(side),
			Shares:      req.Shares,
			Price:       req.Price,
			TotalAmount: totalAmount,
			Commission:  s.commission,
		})
	}

	return &TradeConfirmation{
		OrderID:     entry.OrderID,
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Shares:      req.Shares,
		Price:       req.Price,
		TotalAmount: totalAmount,
		Commission:  s.commission,
		SharesAfter: sharesAfter,
		CashAfter:   cashAfter,
		ExecutedAt:  executedAt,
	}, nil
}
