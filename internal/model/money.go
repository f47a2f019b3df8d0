package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary amount in a single ISO-4217 currency.
// Amounts are kept at 2-decimal precision; arithmetic across currencies is
// rejected rather than silently converted.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney creates a Money value rounded to 2 decimal places.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(2), Currency: currency}
}

// NewMoneyFromFloat creates a Money value from a float, rounded to 2 decimal places.
func NewMoneyFromFloat(amount float64, currency string) Money {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromString parses a decimal string into a Money value.
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid monetary amount %q: %w", amount, err)
	}
	return NewMoney(d, currency), nil
}

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

// Sub returns m - other. Fails if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

// Mul returns m scaled by a dimensionless factor (e.g. a share quantity).
func (m Money) Mul(factor decimal.Decimal) Money {
	return NewMoney(m.Amount.Mul(factor), m.Currency)
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, 1 if m > other.
// Fails if the currencies differ.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.checkCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// String formats the amount with its currency code, e.g. "10250.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

func (m Money) checkCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return nil
}
