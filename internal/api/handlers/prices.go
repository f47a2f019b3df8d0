package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/papertrade/virtual-trading-backend/internal/api/response"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/service"
	"github.com/papertrade/virtual-trading-backend/internal/validation"
)

// PriceHandler handles market data HTTP requests
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// Current handles GET requests for the latest known price of a ticker.
//
// Endpoint: GET /api/prices/{ticker}/current
func (h *PriceHandler) Current(w http.ResponseWriter, r *http.Request) {
	ticker, err := validation.ValidateTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	point, err := h.priceService.GetCurrentPrice(r.Context(), ticker)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, point)
}

// At handles GET requests for the price of a ticker at a specific instant,
// resolved to the close of the last trading day on or before it.
//
// Endpoint: GET /api/prices/{ticker}/at?timestamp=2024-03-15T00:00:00Z
func (h *PriceHandler) At(w http.ResponseWriter, r *http.Request) {
	ticker, err := validation.ValidateTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	raw := r.URL.Query().Get("timestamp")
	if raw == "" {
		response.RespondError(w, http.StatusBadRequest, "timestamp query parameter is required", "")
		return
	}
	instant, err := repository.ParseTime(raw)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid timestamp", err.Error())
		return
	}

	point, err := h.priceService.GetPriceAt(r.Context(), ticker, instant)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, point)
}

// History handles GET requests for a ticker's price history over a date
// range. The interval defaults to daily. Responses carry a partial flag when
// the range could not be fully covered.
//
// Endpoint: GET /api/prices/{ticker}/history?start=2024-03-01&end=2024-03-31&interval=1day
func (h *PriceHandler) History(w http.ResponseWriter, r *http.Request) {
	ticker, err := validation.ValidateTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	q := r.URL.Query()
	start, err := repository.ParseTime(q.Get("start"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid start", err.Error())
		return
	}
	end, err := repository.ParseTime(q.Get("end"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid end", err.Error())
		return
	}
	interval := model.Interval1Day
	if raw := q.Get("interval"); raw != "" {
		interval, err = validation.ValidateInterval(raw)
		if err != nil {
			respondServiceError(w, err)
			return
		}
	}

	history, err := h.priceService.GetPriceHistory(r.Context(), ticker, start, end, interval)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, history)
}

// Tickers handles GET requests for the list of supported tickers.
//
// Endpoint: GET /api/tickers
func (h *PriceHandler) Tickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.priceService.SupportedTickers()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string][]model.Ticker{"tickers": tickers})
}

// parseAsOf reads an optional asOf query parameter. A missing parameter
// yields the zero time, which services interpret as now.
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return time.Time{}, nil
	}
	return repository.ParseTime(raw)
}
