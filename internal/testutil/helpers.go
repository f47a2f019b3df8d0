package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/cache"
	"github.com/papertrade/virtual-trading-backend/internal/config"
	"github.com/papertrade/virtual-trading-backend/internal/ratelimit"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/service"
)

// TestPricingConfig returns the pricing tunables used across service tests.
func TestPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		CompletenessThreshold: 0.7,
		CacheTTL:              15 * time.Minute,
		RefreshSchedule:       "30 21 * * 1-5",
	}
}

// NewTestPriceService wires a PriceService against the given database and
// mock gateway, with a generous rate limit so tests exercise the read path
// rather than the quota.
func NewTestPriceService(t *testing.T, db *sql.DB, gateway service.QuoteGateway) *service.PriceService {
	t.Helper()

	return service.NewPriceService(
		repository.NewPriceRepository(db),
		cache.New(15*time.Minute, zerolog.Nop()),
		gateway,
		ratelimit.New(1000, 10000, zerolog.Nop()),
		TestPricingConfig(),
		zerolog.Nop(),
	)
}

// NewTestPriceServiceWithLimiter is NewTestPriceService with a caller-chosen
// rate limiter, for tests of degraded behavior.
func NewTestPriceServiceWithLimiter(t *testing.T, db *sql.DB, gateway service.QuoteGateway, limiter *ratelimit.Limiter) *service.PriceService {
	t.Helper()

	return service.NewPriceService(
		repository.NewPriceRepository(db),
		cache.New(15*time.Minute, zerolog.Nop()),
		gateway,
		limiter,
		TestPricingConfig(),
		zerolog.Nop(),
	)
}

// NewTestLedgerService wires a LedgerService using the given price lookup.
func NewTestLedgerService(t *testing.T, db *sql.DB, prices service.PriceLookup) *service.LedgerService {
	t.Helper()

	return service.NewLedgerService(
		repository.NewLedgerRepository(db),
		repository.NewPortfolioRepository(db),
		prices,
		zerolog.Nop(),
	)
}

// NewTestPortfolioService wires a PortfolioService.
func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewLedgerRepository(db),
		zerolog.Nop(),
	)
}

// NewTestValuationService wires a ValuationService using the given price
// lookup.
func NewTestValuationService(t *testing.T, db *sql.DB, prices service.PriceLookup) *service.ValuationService {
	t.Helper()

	return service.NewValuationService(
		repository.NewPortfolioRepository(db),
		repository.NewLedgerRepository(db),
		prices,
		zerolog.Nop(),
	)
}
