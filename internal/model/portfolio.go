package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the aggregate root for a simulated trading account. It carries
// identity and creation metadata only; cash balance and holdings are always
// derived from its transactions, never stored as mutable fields.
type Portfolio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// Holding is a derived position in a single ticker. Recomputed from the
// transaction history on every valuation; never persisted as authoritative
// state. CostBasis tracks the average-cost method.
type Holding struct {
	Ticker    Ticker          `json:"ticker"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostBasis Money           `json:"costBasis"`
}

// Valuation is a point-in-time view of a portfolio: cash plus holdings marked
// to the prices in effect at AsOf.
type Valuation struct {
	PortfolioID string    `json:"portfolioId"`
	AsOf        time.Time `json:"asOf"`
	CashBalance Money     `json:"cashBalance"`
	Holdings    []Holding `json:"holdings"`
	MarketValue Money     `json:"marketValue"`
	TotalValue  Money     `json:"totalValue"`
}
