package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/marketcal"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/ratelimit"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/testutil"
)

// Trading week of Monday March 11 through Friday March 15, 2024.
var (
	monday = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	friday = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
)

func TestHistoryServedFromStoreWithoutProviderCall(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	svc := testutil.NewTestPriceService(t, db, gateway)

	for i := 0; i < 5; i++ {
		testutil.InsertDailyClose(t, db, "AAPL", monday.AddDate(0, 0, i), 180+float64(i))
	}

	history, err := svc.GetPriceHistory(context.Background(), "AAPL", monday, friday, model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if history.Partial {
		t.Error("Expected a complete response")
	}
	if len(history.Points) != 5 {
		t.Fatalf("Expected 5 points, got %d", len(history.Points))
	}
	if gateway.DailySeriesCalls != 0 {
		t.Errorf("Expected no provider calls for a complete stored range, got %d", gateway.DailySeriesCalls)
	}
}

func TestHistoryGapFillFetchesProvider(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	gateway.Series = testutil.MakeDailySeries("AAPL", friday, 5, 180)
	svc := testutil.NewTestPriceService(t, db, gateway)

	// Store holds only the tail of the requested range.
	testutil.InsertDailyClose(t, db, "AAPL", friday.AddDate(0, 0, -1), 183)
	testutil.InsertDailyClose(t, db, "AAPL", friday, 184)

	history, err := svc.GetPriceHistory(context.Background(), "AAPL", monday, friday, model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if gateway.DailySeriesCalls != 1 {
		t.Fatalf("Expected exactly 1 provider call, got %d", gateway.DailySeriesCalls)
	}
	if history.Partial {
		t.Error("Expected a complete response after gap fill")
	}
	if len(history.Points) != 5 {
		t.Fatalf("Expected 5 points after gap fill, got %d", len(history.Points))
	}

	// The fetched window must have been written through to the store.
	stored, err := repository.NewPriceRepository(db).GetPrices("AAPL", monday, friday.AddDate(0, 0, 1), model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if len(stored) != 5 {
		t.Errorf("Expected 5 stored points after write-through, got %d", len(stored))
	}
}

func TestHistoryDegradedWhenQuotaExhausted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	gateway.Series = testutil.MakeDailySeries("AAPL", friday, 5, 180)
	limiter := ratelimit.New(5, 1, zerolog.Nop())
	limiter.ConsumeToken() // burn the daily budget
	svc := testutil.NewTestPriceServiceWithLimiter(t, db, gateway, limiter)

	testutil.InsertDailyClose(t, db, "AAPL", friday.AddDate(0, 0, -1), 183)
	testutil.InsertDailyClose(t, db, "AAPL", friday, 184)

	history, err := svc.GetPriceHistory(context.Background(), "AAPL", monday, friday, model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if !history.Partial {
		t.Error("Expected a partial response when the quota is exhausted")
	}
	if len(history.Points) != 2 {
		t.Fatalf("Expected the 2 stored points, got %d", len(history.Points))
	}
	if gateway.DailySeriesCalls != 0 {
		t.Errorf("Expected no provider calls past the quota, got %d", gateway.DailySeriesCalls)
	}
}

func TestHistoryDegradedWhenProviderFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	gateway.Err = &apperrors.ProviderError{Endpoint: "TIME_SERIES_DAILY", StatusCode: 502, Err: errors.New("bad gateway")}
	svc := testutil.NewTestPriceService(t, db, gateway)

	testutil.InsertDailyClose(t, db, "AAPL", friday, 184)

	history, err := svc.GetPriceHistory(context.Background(), "AAPL", monday, friday, model.Interval1Day)
	if err != nil {
		t.Fatalf("Expected a degraded response, not an error: %v", err)
	}
	if !history.Partial {
		t.Error("Expected a partial response when the provider fails")
	}
	if len(history.Points) != 1 {
		t.Fatalf("Expected the stored point, got %d points", len(history.Points))
	}
}

func TestDailyDedupPrefersMarketClose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	svc := testutil.NewTestPriceService(t, db, gateway)

	for _, tc := range []struct {
		hour, minute int
		price        float64
	}{
		{0, 37, 183.10},
		{13, 35, 183.80},
		{21, 0, 184.25},
	} {
		testutil.InsertPricePoint(t, db, model.PricePoint{
			Ticker:    "AAPL",
			Price:     model.NewMoneyFromFloat(tc.price, "USD"),
			Timestamp: time.Date(2024, 3, 15, tc.hour, tc.minute, 0, 0, time.UTC),
			Source:    model.SourceProvider,
			Interval:  model.Interval1Day,
		})
	}

	history, err := svc.GetPriceHistory(context.Background(), "AAPL", friday, friday, model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if len(history.Points) != 1 {
		t.Fatalf("Expected 1 point after dedup, got %d", len(history.Points))
	}
	point := history.Points[0]
	if !point.Timestamp.Equal(marketcal.MarketCloseUTC(friday)) {
		t.Errorf("Expected the market close observation, got timestamp %s", point.Timestamp)
	}
	if point.Price.String() != "184.25 USD" {
		t.Errorf("Expected the close price 184.25 USD, got %s", point.Price)
	}
}

func TestHistoryCacheHitRelabelsSource(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	svc := testutil.NewTestPriceService(t, db, gateway)

	for i := 0; i < 5; i++ {
		testutil.InsertDailyClose(t, db, "AAPL", monday.AddDate(0, 0, i), 180+float64(i))
	}

	if _, err := svc.GetPriceHistory(context.Background(), "AAPL", monday, friday, model.Interval1Day); err != nil {
		t.Fatalf("First GetPriceHistory failed: %v", err)
	}
	second, err := svc.GetPriceHistory(context.Background(), "AAPL", monday, friday, model.Interval1Day)
	if err != nil {
		t.Fatalf("Second GetPriceHistory failed: %v", err)
	}
	for _, p := range second.Points {
		if p.Source != model.SourceCache {
			t.Errorf("Expected source %q on cache hit, got %q", model.SourceCache, p.Source)
		}
	}
	if gateway.DailySeriesCalls != 0 {
		t.Errorf("Expected no provider calls, got %d", gateway.DailySeriesCalls)
	}
}

func TestIntradayServedFromStoreOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	svc := testutil.NewTestPriceService(t, db, gateway)

	testutil.InsertPricePoint(t, db, model.PricePoint{
		Ticker:    "AAPL",
		Price:     model.NewMoneyFromFloat(183.40, "USD"),
		Timestamp: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC),
		Source:    model.SourceProvider,
		Interval:  model.Interval1Hour,
	})

	history, err := svc.GetPriceHistory(context.Background(), "AAPL", friday, friday, model.Interval1Hour)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if len(history.Points) != 1 {
		t.Fatalf("Expected the single stored hourly point, got %d", len(history.Points))
	}
	if gateway.DailySeriesCalls != 0 {
		t.Errorf("Expected no provider calls for intraday data, got %d", gateway.DailySeriesCalls)
	}
}

func TestGetPriceAtRejectsFutureInstant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPriceService(t, db, testutil.NewMockQuoteGateway())

	_, err := svc.GetPriceAt(context.Background(), "AAPL", time.Now().UTC().AddDate(0, 0, 7))
	if !errors.Is(err, apperrors.ErrFutureTimestamp) {
		t.Fatalf("Expected ErrFutureTimestamp, got %v", err)
	}
}

func TestGetPriceAtResolvesWeekendToFriday(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	svc := testutil.NewTestPriceService(t, db, gateway)

	testutil.InsertDailyClose(t, db, "AAPL", friday, 184.25)

	saturdayEvening := time.Date(2024, 3, 16, 18, 0, 0, 0, time.UTC)
	point, err := svc.GetPriceAt(context.Background(), "AAPL", saturdayEvening)
	if err != nil {
		t.Fatalf("GetPriceAt failed: %v", err)
	}
	if !point.Timestamp.Equal(marketcal.MarketCloseUTC(friday)) {
		t.Errorf("Expected Friday's close, got %s", point.Timestamp)
	}
	if gateway.DailySeriesCalls != 0 {
		t.Errorf("Expected no provider calls, got %d", gateway.DailySeriesCalls)
	}
}

func TestGetPriceAtFetchesWhenMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	gateway.Series = testutil.MakeDailySeries("AAPL", friday, 5, 180)
	svc := testutil.NewTestPriceService(t, db, gateway)

	point, err := svc.GetPriceAt(context.Background(), "AAPL", friday.Add(22*time.Hour))
	if err != nil {
		t.Fatalf("GetPriceAt failed: %v", err)
	}
	if gateway.DailySeriesCalls != 1 {
		t.Fatalf("Expected 1 provider call, got %d", gateway.DailySeriesCalls)
	}
	if !point.Timestamp.Equal(marketcal.MarketCloseUTC(friday)) {
		t.Errorf("Expected Friday's close, got %s", point.Timestamp)
	}
}

func TestGetPriceAtUnavailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	gateway.Err = &apperrors.ProviderError{Endpoint: "TIME_SERIES_DAILY", Err: errors.New("unknown symbol")}
	svc := testutil.NewTestPriceService(t, db, gateway)

	_, err := svc.GetPriceAt(context.Background(), "ZZZZ", friday)
	if !errors.Is(err, apperrors.ErrPriceUnavailable) {
		t.Fatalf("Expected ErrPriceUnavailable, got %v", err)
	}
}

func TestGetCurrentPriceUsesQuoteAndCaches(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	gateway.Quote = model.PricePoint{
		Ticker:    "AAPL",
		Price:     model.NewMoneyFromFloat(186.20, "USD"),
		Timestamp: marketcal.MarketCloseUTC(friday),
		Source:    model.SourceProvider,
		Interval:  model.Interval1Day,
	}
	svc := testutil.NewTestPriceService(t, db, gateway)

	first, err := svc.GetCurrentPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("First GetCurrentPrice failed: %v", err)
	}
	if first.Source != model.SourceProvider {
		t.Errorf("Expected provider source on first call, got %q", first.Source)
	}

	second, err := svc.GetCurrentPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Second GetCurrentPrice failed: %v", err)
	}
	if second.Source != model.SourceCache {
		t.Errorf("Expected cache source on second call, got %q", second.Source)
	}
	if gateway.GlobalQuoteCalls != 1 {
		t.Errorf("Expected 1 quote call total, got %d", gateway.GlobalQuoteCalls)
	}
}

func TestGetCurrentPriceFallsBackToStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gateway := testutil.NewMockQuoteGateway()
	limiter := ratelimit.New(5, 1, zerolog.Nop())
	limiter.ConsumeToken()
	svc := testutil.NewTestPriceServiceWithLimiter(t, db, gateway, limiter)

	testutil.InsertDailyClose(t, db, "AAPL", friday, 184.25)

	point, err := svc.GetCurrentPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetCurrentPrice failed: %v", err)
	}
	if point.Source != model.SourceStore {
		t.Errorf("Expected store source, got %q", point.Source)
	}
	if gateway.GlobalQuoteCalls != 0 {
		t.Errorf("Expected no quote calls, got %d", gateway.GlobalQuoteCalls)
	}
}

func TestSupportedTickersMergesStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPriceService(t, db, testutil.NewMockQuoteGateway())

	testutil.InsertDailyClose(t, db, "ASML", friday, 900)

	tickers, err := svc.SupportedTickers()
	if err != nil {
		t.Fatalf("SupportedTickers failed: %v", err)
	}
	found := false
	for _, ticker := range tickers {
		if ticker == "ASML" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected stored ticker ASML in supported list, got %v", tickers)
	}
}
