package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

// Ledger transaction types.
const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionBuy        TransactionType = "BUY"
	TransactionSell       TransactionType = "SELL"
)

// ValidTransactionType reports whether s is a recognized transaction type.
func ValidTransactionType(s string) bool {
	switch TransactionType(s) {
	case TransactionDeposit, TransactionWithdrawal, TransactionBuy, TransactionSell:
		return true
	}
	return false
}

// Transaction is an immutable, append-only ledger entry. Once persisted it is
// never updated or deleted. Ordering is by Timestamp, ties broken by Seq
// (insertion sequence assigned by the store).
type Transaction struct {
	ID            string          `json:"id"`
	PortfolioID   string          `json:"portfolioId"`
	Type          TransactionType `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	Seq           int64           `json:"-"`
	CashChange    Money           `json:"cashChange"`
	Ticker        Ticker          `json:"ticker,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerShare Money           `json:"pricePerShare"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}

// IsTrade reports whether the transaction moves shares (BUY or SELL).
func (t Transaction) IsTrade() bool {
	return t.Type == TransactionBuy || t.Type == TransactionSell
}
