package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/api/request"
	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/validation"
)

// PortfolioService handles portfolio lifecycle operations.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	ledgerRepo    *repository.LedgerRepository
	now           func() time.Time
	log           zerolog.Logger
}

// NewPortfolioService creates a new PortfolioService with the provided
// repository dependencies.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	ledgerRepo *repository.LedgerRepository,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		ledgerRepo:    ledgerRepo,
		now:           time.Now,
		log:           log.With().Str("component", "portfolio_service").Logger(),
	}
}

// Create creates a portfolio and seeds its ledger with the initial deposit.
// The deposit is mandatory and must be positive so that the derived cash
// balance starts above zero.
func (s *PortfolioService) Create(ctx context.Context, req request.CreatePortfolioRequest) (model.Portfolio, error) {
	if req.Name == "" {
		return model.Portfolio{}, fmt.Errorf("%w: name", apperrors.ErrMissingRequiredField)
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	if req.InitialDeposit <= 0 {
		return model.Portfolio{}, fmt.Errorf("%w: initial deposit must be positive", apperrors.ErrNegativeAmount)
	}

	now := s.now().UTC()
	portfolio := model.Portfolio{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Currency:  currency,
		CreatedAt: now,
	}
	if err := s.portfolioRepo.Insert(ctx, portfolio); err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to create portfolio: %w", err)
	}

	deposit := model.Transaction{
		ID:          uuid.New().String(),
		PortfolioID: portfolio.ID,
		Type:        model.TransactionDeposit,
		Timestamp:   now,
		CashChange:  model.NewMoneyFromFloat(req.InitialDeposit, currency),
		Notes:       "initial deposit",
		CreatedAt:   now,
	}
	if _, err := s.ledgerRepo.Append(ctx, deposit); err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to record initial deposit: %w", err)
	}

	s.log.Info().
		Str("portfolio_id", portfolio.ID).
		Str("name", portfolio.Name).
		Str("initial_deposit", deposit.CashChange.String()).
		Msg("portfolio created")
	return portfolio, nil
}

// Get retrieves a single portfolio by its ID.
func (s *PortfolioService) Get(id string) (model.Portfolio, error) {
	if err := validation.ValidateUUID(id); err != nil {
		return model.Portfolio{}, err
	}
	return s.portfolioRepo.Get(id)
}

// GetAll retrieves all portfolios.
func (s *PortfolioService) GetAll() ([]model.Portfolio, error) {
	return s.portfolioRepo.GetAll()
}
