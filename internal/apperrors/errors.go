package apperrors

import (
	"errors"
	"fmt"
)

// Validation errors are always reported to the caller and never retried.
var (
	// ErrInvalidTicker indicates a malformed or unsupported ticker symbol.
	ErrInvalidTicker = errors.New("invalid ticker symbol")

	// ErrInvalidInterval indicates an unrecognized price interval.
	ErrInvalidInterval = errors.New("invalid price interval")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrFutureTimestamp indicates a price or valuation request for an
	// instant in the future.
	ErrFutureTimestamp = errors.New("timestamp is in the future")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeAmount indicates that an amount field has an invalid negative value.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Business rule errors reject a ledger append; they are always reported and
// never converted into silent clamping.
var (
	// ErrInsufficientFunds indicates a withdrawal or buy exceeding the cash
	// balance at the transaction's timestamp.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares indicates a sell exceeding the held quantity for
	// that ticker at the transaction's timestamp.
	ErrInsufficientShares = errors.New("insufficient shares for sale")
)

// Domain entity errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPriceUnavailable indicates that no price could be found for a ticker
	// from any tier. Callers must surface this, never substitute zero.
	ErrPriceUnavailable = errors.New("price unavailable")
)

// Rate limiting.
var (
	// ErrRateLimitExhausted is an internal signal that the upstream quota
	// would be exceeded. The price service converts it into a degraded
	// store-only response; it is never surfaced as a hard failure.
	ErrRateLimitExhausted = errors.New("rate limit exhausted")
)

// ProviderError wraps any failure talking to the upstream quote provider:
// timeouts, non-2xx statuses, malformed bodies, or throttle notes. Callers
// treat it as "no fresh data available" rather than a fatal failure.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error on %s (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider error on %s: %v", e.Endpoint, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
