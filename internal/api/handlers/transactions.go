package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/papertrade/virtual-trading-backend/internal/api/request"
	"github.com/papertrade/virtual-trading-backend/internal/api/response"
	"github.com/papertrade/virtual-trading-backend/internal/service"
)

// TransactionHandler handles ledger HTTP requests
type TransactionHandler struct {
	ledgerService *service.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

// Record handles POST requests to append a transaction to a portfolio's
// ledger: deposits, withdrawals, buys, and sells. Trades without an explicit
// price are priced from market data at the transaction's timestamp.
//
// Endpoint: POST /api/portfolios/{portfolioId}/transactions
func (h *TransactionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req request.AppendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transaction, err := h.ledgerService.Record(r.Context(), chi.URLParam(r, "portfolioId"), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, transaction)
}

// List handles GET requests for a portfolio's transactions in ledger order.
// The optional asOf query parameter truncates the history at that instant.
//
// Endpoint: GET /api/portfolios/{portfolioId}/transactions?asOf=2024-03-15
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid asOf", err.Error())
		return
	}

	transactions, err := h.ledgerService.GetByPortfolio(chi.URLParam(r, "portfolioId"), asOf)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, transactions)
}
