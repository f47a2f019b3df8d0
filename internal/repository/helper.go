package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParseTime parses a timestamp string in RFC3339 or "2006-01-02" format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(time.RFC3339, str)
	if err != nil {
		returnTime, err = time.Parse("2006-01-02 15:04:05", str)
		if err != nil {
			returnTime, err = time.Parse("2006-01-02", str)
			if err != nil {
				return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
			}
		}
	}
	return returnTime.UTC(), nil
}

// FormatTime formats a timestamp for storage, always UTC RFC3339.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseDecimal parses a stored fixed-point string.
func ParseDecimal(str string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse decimal %q: %w", str, err)
	}
	return d, nil
}
