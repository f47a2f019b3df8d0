package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/alphavantage"
	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/cache"
	"github.com/papertrade/virtual-trading-backend/internal/config"
	"github.com/papertrade/virtual-trading-backend/internal/marketcal"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/ratelimit"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/validation"
)

// QuoteGateway is the upstream market data provider as seen by the price
// service. Satisfied by *alphavantage.Client in production and by a mock in
// tests.
type QuoteGateway interface {
	DailySeries(ctx context.Context, ticker model.Ticker, size alphavantage.OutputSize) ([]model.PricePoint, error)
	GlobalQuote(ctx context.Context, ticker model.Ticker) (model.PricePoint, error)
}

// defaultTickers seeds the supported-ticker list before any prices have been
// stored. The store's distinct tickers are merged in at query time.
var defaultTickers = []model.Ticker{
	"AAPL", "AMZN", "GOOG", "META", "MSFT", "NFLX", "NVDA", "SPY", "TSLA", "VOO",
}

// PriceService is the multi-tier price read path: in-memory cache, then the
// local price store, then a rate-limited provider call. Provider results are
// written through to the store as a full trailing window so later lookups in
// the same window stay local.
type PriceService struct {
	priceRepo *repository.PriceRepository
	cache     *cache.PriceCache
	gateway   QuoteGateway
	limiter   *ratelimit.Limiter
	cfg       config.PricingConfig
	now       func() time.Time
	log       zerolog.Logger
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(
	priceRepo *repository.PriceRepository,
	priceCache *cache.PriceCache,
	gateway QuoteGateway,
	limiter *ratelimit.Limiter,
	cfg config.PricingConfig,
	log zerolog.Logger,
) *PriceService {
	return &PriceService{
		priceRepo: priceRepo,
		cache:     priceCache,
		gateway:   gateway,
		limiter:   limiter,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("component", "price_service").Logger(),
	}
}

// GetPriceHistory returns prices for ticker within [start, end] at the given
// interval. Daily history is deduplicated to one point per calendar day and
// gap-filled from the provider when the stored range is incomplete. When the
// provider cannot be reached (rate limit exhausted, upstream failure) the
// stored subset is returned with Partial set.
func (s *PriceService) GetPriceHistory(ctx context.Context, ticker model.Ticker, start, end time.Time, interval model.Interval) (model.PriceHistory, error) {
	if err := validation.ValidateDateRange(start, end); err != nil {
		return model.PriceHistory{}, err
	}

	key := cache.HistoryKey(ticker, start, end, interval)
	if points, ok := s.cache.Get(key); ok {
		return model.PriceHistory{Ticker: ticker, Points: relabel(points, model.SourceCache)}, nil
	}

	stored, err := s.priceRepo.GetPrices(ticker, start, endOfDay(end), interval)
	if err != nil {
		return model.PriceHistory{}, err
	}
	stored = relabel(stored, model.SourceStore)

	// Intraday intervals are served from the store only. The daily provider
	// endpoint cannot backfill them, so there is no completeness gate.
	if interval != model.Interval1Day {
		return model.PriceHistory{Ticker: ticker, Points: stored}, nil
	}

	points := dedupDaily(stored)
	if s.isComplete(points, start, end) {
		s.cache.Put(key, points)
		return model.PriceHistory{Ticker: ticker, Points: points}, nil
	}

	fetched, ok := s.fetchDaily(ctx, ticker, start)
	if !ok {
		// Degraded: serve whatever the store has rather than failing the
		// whole lookup.
		return model.PriceHistory{Ticker: ticker, Points: points, Partial: true}, nil
	}

	merged := mergeRange(points, fetched, start, end)
	history := model.PriceHistory{Ticker: ticker, Points: merged}
	if s.isComplete(merged, start, end) {
		s.cache.Put(key, merged)
	} else {
		history.Partial = true
		s.log.Warn().
			Str("ticker", string(ticker)).
			Time("start", start).
			Time("end", end).
			Int("points", len(merged)).
			Msg("range still incomplete after provider fetch")
	}
	return history, nil
}

// GetPriceAt returns the price of ticker as of instant, resolved to the close
// of the last trading day on or before it. Future instants are rejected.
func (s *PriceService) GetPriceAt(ctx context.Context, ticker model.Ticker, instant time.Time) (model.PricePoint, error) {
	if err := validation.ValidateNotFuture(instant, s.now()); err != nil {
		return model.PricePoint{}, err
	}

	day := marketcal.LastTradingDayOnOrBefore(instant)
	if p, err := s.daySettle(ticker, day); err != nil {
		return model.PricePoint{}, err
	} else if p != nil {
		return *p, nil
	}

	if _, ok := s.fetchDaily(ctx, ticker, day); ok {
		if p, err := s.daySettle(ticker, day); err != nil {
			return model.PricePoint{}, err
		} else if p != nil {
			return *p, nil
		}
	}

	// The exact day is missing even after a fetch attempt (delisted ticker,
	// provider window too short, quota exhausted). Fall back to the most
	// recent stored price before it.
	fallback, err := s.priceRepo.GetLatestOnOrBefore(ticker, endOfDay(day), model.Interval1Day)
	if err != nil {
		return model.PricePoint{}, err
	}
	if fallback == nil {
		return model.PricePoint{}, apperrors.ErrPriceUnavailable
	}
	return fallback.WithSource(model.SourceStore), nil
}

// GetCurrentPrice returns the latest known price for ticker, preferring the
// in-memory cache, then a live quote, then the freshest stored point.
func (s *PriceService) GetCurrentPrice(ctx context.Context, ticker model.Ticker) (model.PricePoint, error) {
	key := cache.CurrentKey(ticker)
	if points, ok := s.cache.Get(key); ok && len(points) == 1 {
		return points[0].WithSource(model.SourceCache), nil
	}

	if s.limiter.ConsumeToken() {
		quote, err := s.gateway.GlobalQuote(ctx, ticker)
		if err == nil {
			if err := s.priceRepo.UpsertPricePoints(ctx, []model.PricePoint{quote}); err != nil {
				return model.PricePoint{}, err
			}
			s.cache.Put(key, []model.PricePoint{quote})
			return quote, nil
		}
		s.log.Warn().Err(err).Str("ticker", string(ticker)).Msg("live quote failed, falling back to store")
	} else {
		s.log.Debug().Str("ticker", string(ticker)).Msg("quota exhausted, serving current price from store")
	}

	stored, err := s.priceRepo.GetLatestOnOrBefore(ticker, s.now(), model.Interval1Day)
	if err != nil {
		return model.PricePoint{}, err
	}
	if stored == nil {
		return model.PricePoint{}, apperrors.ErrPriceUnavailable
	}
	return stored.WithSource(model.SourceStore), nil
}

// SupportedTickers returns the tickers the system can price: the static seed
// list plus anything already present in the price store.
func (s *PriceService) SupportedTickers() ([]model.Ticker, error) {
	stored, err := s.priceRepo.DistinctTickers()
	if err != nil {
		return nil, err
	}
	seen := make(map[model.Ticker]bool, len(defaultTickers)+len(stored))
	out := make([]model.Ticker, 0, len(defaultTickers)+len(stored))
	for _, t := range defaultTickers {
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range stored {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Refresh pulls the latest daily window for ticker and writes it through to
// the store. Used by the scheduled after-close refresh job.
func (s *PriceService) Refresh(ctx context.Context, ticker model.Ticker) error {
	if !s.limiter.ConsumeToken() {
		return apperrors.ErrRateLimitExhausted
	}
	points, err := s.gateway.DailySeries(ctx, ticker, alphavantage.OutputCompact)
	if err != nil {
		return err
	}
	if err := s.priceRepo.UpsertPricePoints(ctx, points); err != nil {
		return err
	}
	s.cache.Delete(cache.CurrentKey(ticker))
	return nil
}

// fetchDaily performs one rate-limited provider call for ticker's daily
// series and writes the full returned window through to the store. The
// second return is false when the call could not be made or failed; the
// caller then degrades to stored data.
func (s *PriceService) fetchDaily(ctx context.Context, ticker model.Ticker, oldest time.Time) (points []model.PricePoint, ok bool) {
	if !s.limiter.ConsumeToken() {
		s.log.Warn().Str("ticker", string(ticker)).Msg("provider quota exhausted, serving stored data only")
		return nil, false
	}

	size := alphavantage.OutputCompact
	if s.now().Sub(oldest) > time.Duration(alphavantage.CompactWindowDays)*24*time.Hour {
		size = alphavantage.OutputFull
	}

	points, err := s.gateway.DailySeries(ctx, ticker, size)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", string(ticker)).Msg("provider fetch failed, serving stored data only")
		return nil, false
	}
	if err := s.priceRepo.UpsertPricePoints(ctx, points); err != nil {
		s.log.Error().Err(err).Str("ticker", string(ticker)).Msg("failed to persist provider window")
		return nil, false
	}
	return points, true
}

// daySettle returns the single deduplicated daily point for ticker on the
// given calendar day, or nil when the store has none.
func (s *PriceService) daySettle(ticker model.Ticker, day time.Time) (*model.PricePoint, error) {
	rows, err := s.priceRepo.GetPrices(ticker, marketcal.Day(day), endOfDay(day), model.Interval1Day)
	if err != nil {
		return nil, err
	}
	deduped := dedupDaily(rows)
	if len(deduped) == 0 {
		return nil, nil
	}
	point := deduped[0].WithSource(model.SourceStore)
	return &point, nil
}

// isComplete reports whether points fully cover [start, end]: the series must
// reach within one day of each boundary, and for short ranges must also hold
// a minimum fraction of the expected trading days. The density gate is
// skipped for long ranges where holidays and early data make the expectation
// unreliable.
func (s *PriceService) isComplete(points []model.PricePoint, start, end time.Time) bool {
	if len(points) == 0 {
		return false
	}
	earliest := marketcal.Day(points[0].Timestamp)
	latest := marketcal.Day(points[len(points)-1].Timestamp)
	if earliest.Sub(marketcal.Day(start)) > 24*time.Hour {
		return false
	}
	if marketcal.Day(end).Sub(latest) > 24*time.Hour {
		return false
	}

	if end.Sub(start) <= 30*24*time.Hour {
		expected := marketcal.ExpectedTradingDays(start, end)
		if expected > 0 && float64(len(points)) < s.cfg.CompletenessThreshold*float64(expected) {
			return false
		}
	}
	return true
}

// dedupDaily collapses a daily series to one point per calendar day. The
// official market-close observation wins over intraday snapshots; otherwise
// the latest timestamp for the day is kept. Output is sorted oldest first.
func dedupDaily(points []model.PricePoint) []model.PricePoint {
	if len(points) <= 1 {
		return points
	}
	byDay := make(map[time.Time]model.PricePoint, len(points))
	for _, p := range points {
		day := marketcal.Day(p.Timestamp)
		cur, ok := byDay[day]
		if !ok {
			byDay[day] = p
			continue
		}
		settle := marketcal.MarketCloseUTC(day)
		switch {
		case cur.Timestamp.Equal(settle):
			// keep the settle
		case p.Timestamp.Equal(settle), p.Timestamp.After(cur.Timestamp):
			byDay[day] = p
		}
	}
	out := make([]model.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// mergeRange combines stored and freshly fetched daily points, clips to
// [start, end], and deduplicates.
func mergeRange(stored, fetched []model.PricePoint, start, end time.Time) []model.PricePoint {
	combined := make([]model.PricePoint, 0, len(stored)+len(fetched))
	combined = append(combined, stored...)
	for _, p := range fetched {
		if p.Timestamp.Before(start) || p.Timestamp.After(endOfDay(end)) {
			continue
		}
		combined = append(combined, p)
	}
	return dedupDaily(combined)
}

func relabel(points []model.PricePoint, source model.PriceSource) []model.PricePoint {
	out := make([]model.PricePoint, len(points))
	for i, p := range points {
		out[i] = p.WithSource(source)
	}
	return out
}

func endOfDay(t time.Time) time.Time {
	return marketcal.Day(t).Add(24*time.Hour - time.Nanosecond)
}
