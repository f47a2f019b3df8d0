package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/model"
)

const dailySeriesBody = `{
	"Meta Data": {
		"1. Information": "Daily Prices (open, high, low, close) and Volumes",
		"2. Symbol": "IBM"
	},
	"Time Series (Daily)": {
		"2024-01-15": {
			"1. open": "185.00",
			"2. high": "186.50",
			"3. low": "184.50",
			"4. close": "186.20",
			"5. volume": "3456789"
		},
		"2024-01-12": {
			"1. open": "184.50",
			"2. high": "185.50",
			"3. low": "184.00",
			"4. close": "185.00",
			"5. volume": "3214567"
		}
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, "USD", zerolog.Nop())
}

func TestDailySeries(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"function":   r.URL.Query().Get("function"),
			"symbol":     r.URL.Query().Get("symbol"),
			"outputsize": r.URL.Query().Get("outputsize"),
			"apikey":     r.URL.Query().Get("apikey"),
		}
		_, _ = w.Write([]byte(dailySeriesBody))
	})

	points, err := client.DailySeries(context.Background(), "IBM", OutputCompact)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "TIME_SERIES_DAILY", gotQuery["function"])
	assert.Equal(t, "IBM", gotQuery["symbol"])
	assert.Equal(t, "compact", gotQuery["outputsize"])
	assert.Equal(t, "test-key", gotQuery["apikey"])

	// Sorted oldest first, timestamped at market close.
	assert.Equal(t, time.Date(2024, time.January, 12, 21, 0, 0, 0, time.UTC), points[0].Timestamp)
	assert.Equal(t, time.Date(2024, time.January, 15, 21, 0, 0, 0, time.UTC), points[1].Timestamp)

	assert.Equal(t, model.Ticker("IBM"), points[1].Ticker)
	assert.Equal(t, model.SourceProvider, points[1].Source)
	assert.Equal(t, model.Interval1Day, points[1].Interval)
	assert.Equal(t, "186.20 USD", points[1].Price.String())

	require.NotNil(t, points[1].OHLCV)
	assert.Equal(t, 185.0, points[1].OHLCV.Open)
	assert.Equal(t, int64(3456789), points[1].OHLCV.Volume)
}

func TestDailySeries_EmptySeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Time Series (Daily)": {}}`))
	})

	_, err := client.DailySeries(context.Background(), "IBM", OutputCompact)
	assert.True(t, apperrors.IsProviderError(err))
}

func TestDailySeries_ThrottleNote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note": "API call frequency is limited"}`))
	})

	_, err := client.DailySeries(context.Background(), "IBM", OutputCompact)
	require.Error(t, err)
	assert.True(t, apperrors.IsProviderError(err))
	assert.Contains(t, err.Error(), "throttled")
}

func TestDailySeries_ErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Error Message": "Invalid API call"}`))
	})

	_, err := client.DailySeries(context.Background(), "NOPE", OutputCompact)
	assert.True(t, apperrors.IsProviderError(err))
}

func TestDailySeries_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.DailySeries(context.Background(), "IBM", OutputCompact)
	require.Error(t, err)
	var pe *apperrors.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
}

func TestDailySeries_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.DailySeries(context.Background(), "IBM", OutputCompact)
	assert.True(t, apperrors.IsProviderError(err))
}

func TestGlobalQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		_, _ = w.Write([]byte(`{
			"Global Quote": {
				"01. symbol": "IBM",
				"02. open": "185.00",
				"03. high": "186.50",
				"04. low": "184.50",
				"05. price": "186.20",
				"06. volume": "3456789",
				"07. latest trading day": "2024-01-15"
			}
		}`))
	})

	point, err := client.GlobalQuote(context.Background(), "IBM")
	require.NoError(t, err)

	assert.Equal(t, model.Ticker("IBM"), point.Ticker)
	assert.Equal(t, "186.20 USD", point.Price.String())
	assert.Equal(t, time.Date(2024, time.January, 15, 21, 0, 0, 0, time.UTC), point.Timestamp)
	assert.Equal(t, model.SourceProvider, point.Source)
}

func TestGlobalQuote_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := client.GlobalQuote(context.Background(), "IBM")
	assert.True(t, apperrors.IsProviderError(err))
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"-", 0},
		{".", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseFloat(tt.input))
		})
	}
}
