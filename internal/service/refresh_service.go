package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// TickerSource lists the tickers the refresh job should keep warm. Satisfied
// by *LedgerService (every ticker traded in any portfolio).
type TickerSource interface {
	HeldTickers() ([]model.Ticker, error)
}

// RefreshService runs the scheduled after-close price refresh: it pulls the
// latest daily window for every held ticker so that evening valuations are
// served from the store without burning provider quota at request time.
type RefreshService struct {
	tickers  TickerSource
	prices   *PriceService
	schedule string
	cron     *cron.Cron
	log      zerolog.Logger
}

// NewRefreshService creates a new RefreshService. The schedule is a standard
// cron expression evaluated in UTC.
func NewRefreshService(tickers TickerSource, prices *PriceService, schedule string, log zerolog.Logger) *RefreshService {
	return &RefreshService{
		tickers:  tickers,
		prices:   prices,
		schedule: schedule,
		log:      log.With().Str("component", "refresh_service").Logger(),
	}
}

// Start registers the refresh job and starts the scheduler. Returns an error
// if the configured schedule does not parse.
func (s *RefreshService) Start() error {
	s.cron = cron.New(cron.WithLocation(time.UTC))
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RefreshHeldTickers(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("price refresh scheduler started")
	return nil
}

// Stop stops the scheduler, waiting for a running refresh to finish.
func (s *RefreshService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RefreshHeldTickers refreshes the daily window for every held ticker and
// returns how many were refreshed. Per-ticker failures (including quota
// exhaustion) are logged and skipped; the remaining tickers still refresh on
// the next run.
func (s *RefreshService) RefreshHeldTickers(ctx context.Context) int {
	tickers, err := s.tickers.HeldTickers()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list held tickers")
		return 0
	}

	refreshed := 0
	for _, ticker := range tickers {
		if err := s.prices.Refresh(ctx, ticker); err != nil {
			s.log.Warn().Err(err).Str("ticker", string(ticker)).Msg("refresh skipped")
			continue
		}
		refreshed++
	}
	s.log.Info().Int("refreshed", refreshed).Int("held", len(tickers)).Msg("price refresh complete")
	return refreshed
}
