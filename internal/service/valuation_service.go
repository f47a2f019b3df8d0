package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/validation"
)

// maxPriceFetchConcurrency bounds the parallel price lookups during a
// valuation. Most lookups are cache or store hits, so a small bound keeps
// provider pressure low without serializing the common case.
const maxPriceFetchConcurrency = 4

// ValuationService derives portfolio state from the ledger: cash balance,
// open holdings, and their market value at a point in time. Nothing here is
// stored; every call replays the ledger.
type ValuationService struct {
	portfolioRepo *repository.PortfolioRepository
	ledgerRepo    *repository.LedgerRepository
	prices        PriceLookup
	now           func() time.Time
	log           zerolog.Logger
}

// NewValuationService creates a new ValuationService with the provided
// dependencies.
func NewValuationService(
	portfolioRepo *repository.PortfolioRepository,
	ledgerRepo *repository.LedgerRepository,
	prices PriceLookup,
	log zerolog.Logger,
) *ValuationService {
	return &ValuationService{
		portfolioRepo: portfolioRepo,
		ledgerRepo:    ledgerRepo,
		prices:        prices,
		now:           time.Now,
		log:           log.With().Str("component", "valuation_service").Logger(),
	}
}

// Valuate computes a portfolio's full point-in-time valuation as of the given
// instant: cash, holdings with cost basis, and market value priced at each
// holding's last close on or before asOf. A zero asOf means now; future
// instants are rejected. Any unpriceable holding fails the valuation rather
// than being silently valued at zero.
func (s *ValuationService) Valuate(ctx context.Context, portfolioID string, asOf time.Time) (model.Valuation, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return model.Valuation{}, err
	}
	portfolio, err := s.portfolioRepo.Get(portfolioID)
	if err != nil {
		return model.Valuation{}, err
	}
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}
	if err := validation.ValidateNotFuture(asOf, s.now()); err != nil {
		return model.Valuation{}, err
	}

	history, err := s.ledgerRepo.GetByPortfolio(portfolioID, asOf)
	if err != nil {
		return model.Valuation{}, err
	}
	cash, err := ReplayCash(history, portfolio.Currency)
	if err != nil {
		return model.Valuation{}, err
	}
	holdings, err := ReplayHoldings(history, portfolio.Currency)
	if err != nil {
		return model.Valuation{}, err
	}

	marketValue, err := s.markToMarket(ctx, holdings, asOf, portfolio.Currency)
	if err != nil {
		return model.Valuation{}, err
	}
	totalValue, err := cash.Add(marketValue)
	if err != nil {
		return model.Valuation{}, err
	}

	return model.Valuation{
		PortfolioID: portfolioID,
		AsOf:        asOf,
		CashBalance: cash,
		Holdings:    holdings,
		MarketValue: marketValue,
		TotalValue:  totalValue,
	}, nil
}

// CashBalance computes just the cash component of a portfolio as of the given
// instant.
func (s *ValuationService) CashBalance(portfolioID string, asOf time.Time) (model.Money, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return model.Money{}, err
	}
	portfolio, err := s.portfolioRepo.Get(portfolioID)
	if err != nil {
		return model.Money{}, err
	}
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}
	history, err := s.ledgerRepo.GetByPortfolio(portfolioID, asOf)
	if err != nil {
		return model.Money{}, err
	}
	return ReplayCash(history, portfolio.Currency)
}

// Holdings computes the open positions of a portfolio as of the given
// instant.
func (s *ValuationService) Holdings(portfolioID string, asOf time.Time) ([]model.Holding, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return nil, err
	}
	portfolio, err := s.portfolioRepo.Get(portfolioID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}
	history, err := s.ledgerRepo.GetByPortfolio(portfolioID, asOf)
	if err != nil {
		return nil, err
	}
	return ReplayHoldings(history, portfolio.Currency)
}

// markToMarket prices every holding as of asOf in parallel and sums the
// position values. Fails if any holding cannot be priced.
func (s *ValuationService) markToMarket(ctx context.Context, holdings []model.Holding, asOf time.Time, currency string) (model.Money, error) {
	total := model.NewMoney(decimal.Zero, currency)
	if len(holdings) == 0 {
		return total, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPriceFetchConcurrency)
	for _, h := range holdings {
		h := h
		g.Go(func() error {
			point, err := s.prices.GetPriceAt(gctx, h.Ticker, asOf)
			if err != nil {
				return fmt.Errorf("failed to price holding %s: %w", h.Ticker, err)
			}
			value := point.Price.Mul(h.Quantity)
			mu.Lock()
			defer mu.Unlock()
			total, err = total.Add(value)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.Money{}, err
	}
	return total, nil
}
