package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/papertrade/virtual-trading-backend/internal/api/request"
	"github.com/papertrade/virtual-trading-backend/internal/api/response"
	"github.com/papertrade/virtual-trading-backend/internal/service"
)

// PortfolioHandler handles portfolio HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	valuationService *service.ValuationService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, valuationService *service.ValuationService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		valuationService: valuationService,
	}
}

// Create handles POST requests to create a portfolio with its initial
// deposit.
//
// Endpoint: POST /api/portfolios
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	portfolio, err := h.portfolioService.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, portfolio)
}

// List handles GET requests for all portfolios.
//
// Endpoint: GET /api/portfolios
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolioService.GetAll()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, portfolios)
}

// Get handles GET requests for a single portfolio.
//
// Endpoint: GET /api/portfolios/{portfolioId}
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.portfolioService.Get(chi.URLParam(r, "portfolioId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, portfolio)
}

// Valuation handles GET requests for a portfolio's point-in-time valuation:
// cash, holdings, and market value. The optional asOf query parameter
// defaults to now.
//
// Endpoint: GET /api/portfolios/{portfolioId}/valuation?asOf=2024-03-15
func (h *PortfolioHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid asOf", err.Error())
		return
	}

	valuation, err := h.valuationService.Valuate(r.Context(), chi.URLParam(r, "portfolioId"), asOf)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, valuation)
}

// Cash handles GET requests for a portfolio's cash balance.
//
// Endpoint: GET /api/portfolios/{portfolioId}/cash?asOf=2024-03-15
func (h *PortfolioHandler) Cash(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid asOf", err.Error())
		return
	}

	cash, err := h.valuationService.CashBalance(chi.URLParam(r, "portfolioId"), asOf)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, cash)
}

// Holdings handles GET requests for a portfolio's open positions.
//
// Endpoint: GET /api/portfolios/{portfolioId}/holdings?asOf=2024-03-15
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid asOf", err.Error())
		return
	}

	holdings, err := h.valuationService.Holdings(chi.URLParam(r, "portfolioId"), asOf)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, holdings)
}
