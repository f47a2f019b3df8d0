package testutil

import (
	"context"
	"time"

	"github.com/papertrade/virtual-trading-backend/internal/alphavantage"
	"github.com/papertrade/virtual-trading-backend/internal/marketcal"
	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// MockQuoteGateway is a mock implementation of service.QuoteGateway for
// testing. It returns predefined data instead of calling the provider and
// tracks how often it was hit, so tests can assert that the read path stayed
// local.
type MockQuoteGateway struct {
	// Series is returned from DailySeries.
	Series []model.PricePoint
	// Quote is returned from GlobalQuote.
	Quote model.PricePoint
	// Err is returned from both methods when set.
	Err error
	// DailySeriesCalls counts DailySeries invocations.
	DailySeriesCalls int
	// GlobalQuoteCalls counts GlobalQuote invocations.
	GlobalQuoteCalls int
}

// NewMockQuoteGateway creates a mock gateway with no canned data. Use
// MakeDailySeries or set fields directly to configure responses.
func NewMockQuoteGateway() *MockQuoteGateway {
	return &MockQuoteGateway{}
}

// DailySeries returns the configured series or error.
func (m *MockQuoteGateway) DailySeries(_ context.Context, _ model.Ticker, _ alphavantage.OutputSize) ([]model.PricePoint, error) {
	m.DailySeriesCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Series, nil
}

// GlobalQuote returns the configured quote or error.
func (m *MockQuoteGateway) GlobalQuote(_ context.Context, _ model.Ticker) (model.PricePoint, error) {
	m.GlobalQuoteCalls++
	if m.Err != nil {
		return model.PricePoint{}, m.Err
	}
	return m.Quote, nil
}

// MakeDailySeries builds a provider-style daily close series for ticker: one
// point per trading day, oldest first, ending on the trading day on or before
// end. The price walks upward by one cent per day from basePrice.
func MakeDailySeries(ticker model.Ticker, end time.Time, days int, basePrice float64) []model.PricePoint {
	points := make([]model.PricePoint, 0, days)
	day := marketcal.LastTradingDayOnOrBefore(end)
	for i := 0; i < days; i++ {
		price := basePrice + float64(days-1-i)*0.01
		points = append(points, model.PricePoint{
			Ticker:    ticker,
			Price:     model.NewMoneyFromFloat(price, "USD"),
			Timestamp: marketcal.MarketCloseUTC(day),
			Source:    model.SourceProvider,
			Interval:  model.Interval1Day,
		})
		day = marketcal.LastTradingDayOnOrBefore(day.AddDate(0, 0, -1))
	}
	// reverse to oldest first
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
