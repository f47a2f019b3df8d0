// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/papertrade/virtual-trading-backend/internal/api/response"
	"github.com/papertrade/virtual-trading-backend/internal/validation"
)

// ValidatePortfolioID validates that the portfolioId URL parameter is present
// and is a valid UUID. Returns 400 Bad Request otherwise. Applied to every
// route nested under /{portfolioId}.
func ValidatePortfolioID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "portfolioId")

		if id == "" {
			response.RespondError(w, http.StatusBadRequest, "valid portfolio ID is required", "")
			return
		}

		if err := validation.ValidateUUID(id); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID format", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
