package handlers

import (
	"errors"
	"net/http"

	"github.com/papertrade/virtual-trading-backend/internal/api/response"
	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
)

// respondServiceError maps a service-layer error onto an HTTP status and
// writes the error response. Validation failures become 400, missing
// resources 404, business rule rejections 422, provider trouble 502, and
// anything unrecognized 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidTicker),
		errors.Is(err, apperrors.ErrInvalidInterval),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrFutureTimestamp),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrNegativeAmount),
		errors.Is(err, apperrors.ErrMissingRequiredField):
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound):
		response.RespondError(w, http.StatusNotFound, "resource not found", err.Error())
	case errors.Is(err, apperrors.ErrPriceUnavailable):
		response.RespondError(w, http.StatusNotFound, "price unavailable", err.Error())
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInsufficientShares):
		response.RespondError(w, http.StatusUnprocessableEntity, "transaction rejected", err.Error())
	case apperrors.IsProviderError(err):
		response.RespondError(w, http.StatusBadGateway, "market data provider unavailable", err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
