// Package alphavantage wraps the upstream quote provider's HTTP API and
// converts its JSON payloads into typed price points at this boundary.
// No loosely-typed provider data crosses into the rest of the system.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/marketcal"
	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// DefaultBaseURL is the production endpoint of the quote provider.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// OutputSize selects how much of the daily series the provider returns.
type OutputSize string

const (
	// OutputCompact returns the trailing window only (about 100 trading days).
	OutputCompact OutputSize = "compact"
	// OutputFull returns the complete available history.
	OutputFull OutputSize = "full"
)

// CompactWindowDays is the approximate trailing window of the compact daily
// series. Requests for older ranges silently return partial data upstream, so
// callers must check coverage themselves.
const CompactWindowDays = 100

// Client talks to the quote provider. It performs no rate limiting of its
// own; callers must hold a consumed rate-limit token before each request.
type Client struct {
	apiKey     string
	baseURL    string
	currency   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a provider client. Parsed prices are labeled with the
// given quote currency (the provider omits it from its payloads).
func NewClient(apiKey, baseURL, currency string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		currency:   currency,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "alphavantage").Logger(),
	}
}

// DailySeries fetches the daily price series for a ticker and parses it into
// price points sorted oldest first. Timestamps are placed at the market-close
// instant of each trading day; source is always "provider", interval "1day".
func (c *Client) DailySeries(ctx context.Context, ticker model.Ticker, size OutputSize) ([]model.PricePoint, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker.String())
	params.Set("outputsize", string(size))

	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload dailySeriesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &apperrors.ProviderError{Endpoint: "TIME_SERIES_DAILY", Err: fmt.Errorf("malformed body: %w", err)}
	}
	if len(payload.TimeSeries) == 0 {
		return nil, &apperrors.ProviderError{Endpoint: "TIME_SERIES_DAILY", Err: fmt.Errorf("no daily series returned for %s", ticker)}
	}

	points := make([]model.PricePoint, 0, len(payload.TimeSeries))
	for dateStr, bar := range payload.TimeSeries {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.log.Warn().Str("ticker", ticker.String()).Str("date", dateStr).Msg("skipping bar with unparseable date")
			continue
		}
		closePrice := parseFloat(bar.Close)
		points = append(points, model.PricePoint{
			Ticker:    ticker,
			Price:     model.NewMoneyFromFloat(closePrice, c.currency),
			Timestamp: marketcal.MarketCloseUTC(day),
			Source:    model.SourceProvider,
			Interval:  model.Interval1Day,
			OHLCV: &model.OHLCV{
				Open:   parseFloat(bar.Open),
				High:   parseFloat(bar.High),
				Low:    parseFloat(bar.Low),
				Close:  closePrice,
				Volume: parseInt(bar.Volume),
			},
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return points, nil
}

// GlobalQuote fetches the latest quote for a ticker as a single price point
// timestamped at the close of its latest trading day.
func (c *Client) GlobalQuote(ctx context.Context, ticker model.Ticker) (model.PricePoint, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", ticker.String())

	body, err := c.query(ctx, params)
	if err != nil {
		return model.PricePoint{}, err
	}

	var payload globalQuoteResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.PricePoint{}, &apperrors.ProviderError{Endpoint: "GLOBAL_QUOTE", Err: fmt.Errorf("malformed body: %w", err)}
	}
	q := payload.GlobalQuote
	if q.Symbol == "" || q.Price == "" {
		return model.PricePoint{}, &apperrors.ProviderError{Endpoint: "GLOBAL_QUOTE", Err: fmt.Errorf("empty quote returned for %s", ticker)}
	}

	day, err := time.Parse("2006-01-02", q.LatestTradingDay)
	if err != nil {
		return model.PricePoint{}, &apperrors.ProviderError{Endpoint: "GLOBAL_QUOTE", Err: fmt.Errorf("unparseable trading day %q: %w", q.LatestTradingDay, err)}
	}

	return model.PricePoint{
		Ticker:    ticker,
		Price:     model.NewMoneyFromFloat(parseFloat(q.Price), c.currency),
		Timestamp: marketcal.MarketCloseUTC(day),
		Source:    model.SourceProvider,
		Interval:  model.Interval1Day,
		OHLCV: &model.OHLCV{
			Open:   parseFloat(q.Open),
			High:   parseFloat(q.High),
			Low:    parseFloat(q.Low),
			Close:  parseFloat(q.Price),
			Volume: parseInt(q.Volume),
		},
	}, nil
}

// query executes one GET against the provider and returns the raw body after
// screening for transport failures, non-2xx statuses, and in-band error or
// throttle messages.
func (c *Client) query(ctx context.Context, params url.Values) ([]byte, error) {
	endpoint := params.Get("function")
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &apperrors.ProviderError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ProviderError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ProviderError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ProviderError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}
	if err := checkAPIError(body); err != nil {
		return nil, &apperrors.ProviderError{Endpoint: endpoint, Err: err}
	}

	return body, nil
}

// checkAPIError detects in-band provider errors: the provider returns 200 OK
// with a "Note"/"Information" field when throttling and an "Error Message"
// field for invalid requests.
func checkAPIError(body []byte) error {
	var envelope struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	// Non-JSON bodies are handled by the callers' own unmarshal step.
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	switch {
	case envelope.ErrorMessage != "":
		return fmt.Errorf("provider rejected request: %s", envelope.ErrorMessage)
	case envelope.Note != "":
		return fmt.Errorf("provider throttled request: %s", envelope.Note)
	case envelope.Information != "":
		return fmt.Errorf("provider throttled request: %s", envelope.Information)
	}
	return nil
}

// parseFloat converts provider numeric strings, tolerating empty and
// placeholder values ("None", "-", ".") by returning 0.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return int64(parseFloat(s))
	}
	return i
}

// dailySeriesResponse mirrors the TIME_SERIES_DAILY payload. All numeric
// values arrive as strings.
type dailySeriesResponse struct {
	TimeSeries map[string]dailyBar `json:"Time Series (Daily)"`
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload.
type globalQuoteResponse struct {
	GlobalQuote globalQuote `json:"Global Quote"`
}

type globalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
}
