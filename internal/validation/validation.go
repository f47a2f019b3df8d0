package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if id == "" {
		return apperrors.ErrEmptyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ValidateTicker normalizes and validates a raw ticker symbol.
func ValidateTicker(raw string) (model.Ticker, error) {
	ticker, err := model.NewTicker(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidTicker, err)
	}
	return ticker, nil
}

// ValidateInterval checks that a raw interval string is supported.
func ValidateInterval(raw string) (model.Interval, error) {
	if !model.ValidInterval(raw) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidInterval, raw)
	}
	return model.Interval(raw), nil
}

// ValidateDateRange checks that start <= end.
func ValidateDateRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: start %s after end %s",
			apperrors.ErrInvalidDateRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return nil
}

// ValidateNotFuture rejects instants after now.
func ValidateNotFuture(t, now time.Time) error {
	if t.After(now) {
		return fmt.Errorf("%w: %s", apperrors.ErrFutureTimestamp, t.UTC().Format(time.RFC3339))
	}
	return nil
}
