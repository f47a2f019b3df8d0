package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/papertrade/virtual-trading-backend/internal/api/request"
	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/validation"
)

// PriceLookup resolves a market price for a ticker at an instant. Satisfied
// by *PriceService; trades recorded without an explicit price use it.
type PriceLookup interface {
	GetPriceAt(ctx context.Context, ticker model.Ticker, instant time.Time) (model.PricePoint, error)
}

// LedgerService guards the append-only transaction ledger. Every append is
// validated against the portfolio state as of the transaction's timestamp, so
// backdated entries are checked against the history that existed at that
// point in time.
type LedgerService struct {
	ledgerRepo    *repository.LedgerRepository
	portfolioRepo *repository.PortfolioRepository
	prices        PriceLookup
	now           func() time.Time
	log           zerolog.Logger
}

// NewLedgerService creates a new LedgerService with the provided dependencies.
func NewLedgerService(
	ledgerRepo *repository.LedgerRepository,
	portfolioRepo *repository.PortfolioRepository,
	prices PriceLookup,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:    ledgerRepo,
		portfolioRepo: portfolioRepo,
		prices:        prices,
		now:           time.Now,
		log:           log.With().Str("component", "ledger_service").Logger(),
	}
}

// Record validates and appends a transaction to a portfolio's ledger.
// Deposits and withdrawals move cash; buys and sells move cash and shares at
// a price either given by the caller or resolved from market data at the
// transaction's timestamp.
func (s *LedgerService) Record(ctx context.Context, portfolioID string, req request.AppendTransactionRequest) (model.Transaction, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return model.Transaction{}, err
	}
	portfolio, err := s.portfolioRepo.Get(portfolioID)
	if err != nil {
		return model.Transaction{}, err
	}
	if !model.ValidTransactionType(req.Type) {
		return model.Transaction{}, fmt.Errorf("%w: type %q", apperrors.ErrMissingRequiredField, req.Type)
	}

	ts := s.now().UTC()
	if req.Timestamp != "" {
		ts, err = repository.ParseTime(req.Timestamp)
		if err != nil {
			return model.Transaction{}, err
		}
	}
	if err := validation.ValidateNotFuture(ts, s.now()); err != nil {
		return model.Transaction{}, err
	}

	t := model.Transaction{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		Type:        model.TransactionType(req.Type),
		Timestamp:   ts,
		Notes:       req.Notes,
		CreatedAt:   s.now().UTC(),
	}

	switch t.Type {
	case model.TransactionDeposit, model.TransactionWithdrawal:
		if req.Amount <= 0 {
			return model.Transaction{}, fmt.Errorf("%w: amount must be positive", apperrors.ErrNegativeAmount)
		}
		t.CashChange = model.NewMoneyFromFloat(req.Amount, portfolio.Currency)
		if t.Type == model.TransactionWithdrawal {
			t.CashChange = t.CashChange.Neg()
		}
	case model.TransactionBuy, model.TransactionSell:
		if err := s.fillTrade(ctx, &t, portfolio.Currency, req); err != nil {
			return model.Transaction{}, err
		}
	}

	if err := s.checkInvariants(portfolioID, t); err != nil {
		return model.Transaction{}, err
	}

	appended, err := s.ledgerRepo.Append(ctx, t)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to append transaction: %w", err)
	}
	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("transaction_id", appended.ID).
		Str("type", string(appended.Type)).
		Str("cash_change", appended.CashChange.String()).
		Msg("transaction recorded")
	return appended, nil
}

// GetByPortfolio returns a portfolio's transactions up to asOf in ledger
// order. A zero asOf means now.
func (s *LedgerService) GetByPortfolio(portfolioID string, asOf time.Time) ([]model.Transaction, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return nil, err
	}
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}
	return s.ledgerRepo.GetByPortfolio(portfolioID, asOf)
}

// HeldTickers returns every ticker that appears in any trade across all
// portfolios. Used by the scheduled price refresh.
func (s *LedgerService) HeldTickers() ([]model.Ticker, error) {
	return s.ledgerRepo.HeldTickers()
}

// fillTrade completes a BUY or SELL transaction from the request: ticker,
// quantity, a price per share (caller-provided or resolved from market data
// at the transaction's timestamp) and the resulting signed cash change.
func (s *LedgerService) fillTrade(ctx context.Context, t *model.Transaction, currency string, req request.AppendTransactionRequest) error {
	ticker, err := validation.ValidateTicker(req.Ticker)
	if err != nil {
		return err
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", apperrors.ErrNegativeAmount)
	}
	t.Ticker = ticker
	t.Quantity = decimal.NewFromFloat(req.Quantity)

	if req.PricePerShare > 0 {
		t.PricePerShare = model.NewMoneyFromFloat(req.PricePerShare, currency)
	} else {
		point, err := s.prices.GetPriceAt(ctx, ticker, t.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to resolve trade price for %s: %w", ticker, err)
		}
		t.PricePerShare = point.Price
	}

	total := t.PricePerShare.Mul(t.Quantity)
	if t.Type == model.TransactionBuy {
		t.CashChange = total.Neg()
	} else {
		t.CashChange = total
	}
	return nil
}

// checkInvariants replays the ledger up to the transaction's timestamp and
// rejects appends that would overdraw cash or oversell a position at that
// point in history.
func (s *LedgerService) checkInvariants(portfolioID string, t model.Transaction) error {
	history, err := s.ledgerRepo.GetByPortfolio(portfolioID, t.Timestamp)
	if err != nil {
		return err
	}

	if t.CashChange.IsNegative() {
		cash, err := ReplayCash(history, t.CashChange.Currency)
		if err != nil {
			return err
		}
		after, err := cash.Add(t.CashChange)
		if err != nil {
			return err
		}
		if after.IsNegative() {
			return fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientFunds, cash, t.CashChange.Neg())
		}
	}

	if t.Type == model.TransactionSell {
		held := heldQuantity(history, t.Ticker)
		if held.LessThan(t.Quantity) {
			return fmt.Errorf("%w: held %s, requested %s", apperrors.ErrInsufficientShares, held, t.Quantity)
		}
	}
	return nil
}

// ReplayCash folds a ledger into its cash balance: the sum of every signed
// cash change.
func ReplayCash(history []model.Transaction, currency string) (model.Money, error) {
	cash := model.NewMoney(decimal.Zero, currency)
	for _, t := range history {
		var err error
		cash, err = cash.Add(t.CashChange)
		if err != nil {
			return model.Money{}, err
		}
	}
	return cash, nil
}

// ReplayHoldings folds a ledger into the open positions using the
// average-cost method. Buys increase quantity and raise cost basis by the
// purchase amount; sells decrease quantity and release cost basis
// proportionally. Positions that reach zero are dropped.
func ReplayHoldings(history []model.Transaction, currency string) ([]model.Holding, error) {
	type position struct {
		quantity decimal.Decimal
		cost     decimal.Decimal
	}
	positions := make(map[model.Ticker]*position)
	order := make([]model.Ticker, 0)

	for _, t := range history {
		if !t.IsTrade() {
			continue
		}
		pos, ok := positions[t.Ticker]
		if !ok {
			pos = &position{quantity: decimal.Zero, cost: decimal.Zero}
			positions[t.Ticker] = pos
			order = append(order, t.Ticker)
		}
		amount := t.PricePerShare.Amount.Mul(t.Quantity)
		switch t.Type {
		case model.TransactionBuy:
			pos.quantity = pos.quantity.Add(t.Quantity)
			pos.cost = pos.cost.Add(amount)
		case model.TransactionSell:
			if pos.quantity.IsPositive() {
				released := pos.cost.Mul(t.Quantity).Div(pos.quantity)
				pos.cost = pos.cost.Sub(released)
			}
			pos.quantity = pos.quantity.Sub(t.Quantity)
		}
	}

	holdings := make([]model.Holding, 0, len(positions))
	for _, ticker := range order {
		pos := positions[ticker]
		if pos.quantity.IsZero() {
			continue
		}
		holdings = append(holdings, model.Holding{
			Ticker:    ticker,
			Quantity:  pos.quantity,
			CostBasis: model.NewMoney(pos.cost, currency),
		})
	}
	return holdings, nil
}

func heldQuantity(history []model.Transaction, ticker model.Ticker) decimal.Decimal {
	held := decimal.Zero
	for _, t := range history {
		if t.Ticker != ticker {
			continue
		}
		switch t.Type {
		case model.TransactionBuy:
			held = held.Add(t.Quantity)
		case model.TransactionSell:
			held = held.Sub(t.Quantity)
		}
	}
	return held
}
