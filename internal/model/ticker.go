package model

import (
	"fmt"
	"strings"
)

// Ticker is a normalized, uppercase stock symbol. Two tickers are equal when
// their symbols are equal; construct via NewTicker to guarantee normalization.
type Ticker string

const maxTickerLength = 10

// NewTicker normalizes a raw symbol (trim + uppercase) and validates it.
// Valid symbols are 1-10 characters from [A-Z0-9.-].
func NewTicker(raw string) (Ticker, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", fmt.Errorf("ticker symbol cannot be empty")
	}
	if len(symbol) > maxTickerLength {
		return "", fmt.Errorf("ticker symbol %q exceeds %d characters", symbol, maxTickerLength)
	}
	for _, c := range symbol {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '.' && c != '-' {
			return "", fmt.Errorf("ticker symbol %q contains invalid character %q", symbol, c)
		}
	}
	return Ticker(symbol), nil
}

// String returns the normalized symbol.
func (t Ticker) String() string {
	return string(t)
}
