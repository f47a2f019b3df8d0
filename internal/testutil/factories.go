package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papertrade/virtual-trading-backend/internal/marketcal"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
)

// MakeID returns a fresh UUID string.
func MakeID() string {
	return uuid.New().String()
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Tech Picks").
//	    WithCurrency("EUR").
//	    Build(t, db)
type PortfolioBuilder struct {
	ID       string
	Name     string
	Currency string
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:       MakeID(),
		Name:     "Test Portfolio",
		Currency: "USD",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithCurrency sets a custom currency.
func (b *PortfolioBuilder) WithCurrency(currency string) *PortfolioBuilder {
	b.Currency = currency
	return b
}

// Build inserts the portfolio and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	p := model.Portfolio{
		ID:        b.ID,
		Name:      b.Name,
		Currency:  b.Currency,
		CreatedAt: time.Now().UTC(),
	}
	if err := repository.NewPortfolioRepository(db).Insert(context.Background(), p); err != nil {
		t.Fatalf("Failed to insert test portfolio: %v", err)
	}
	return p
}

// TransactionBuilder provides a fluent interface for appending test ledger
// transactions directly through the repository, bypassing service-level
// invariant checks.
//
// Example usage:
//
//	testutil.NewTransaction(portfolio.ID).
//	    Deposit(10000).
//	    At(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).
//	    Build(t, db)
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder for the given portfolio with a
// default deposit of 1000 USD at the current time.
func NewTransaction(portfolioID string) *TransactionBuilder {
	return &TransactionBuilder{
		tx: model.Transaction{
			ID:          MakeID(),
			PortfolioID: portfolioID,
			Type:        model.TransactionDeposit,
			Timestamp:   time.Now().UTC(),
			CashChange:  model.NewMoneyFromFloat(1000, "USD"),
			CreatedAt:   time.Now().UTC(),
		},
	}
}

// Deposit makes the transaction a deposit of the given amount.
func (b *TransactionBuilder) Deposit(amount float64) *TransactionBuilder {
	b.tx.Type = model.TransactionDeposit
	b.tx.CashChange = model.NewMoneyFromFloat(amount, b.tx.CashChange.Currency)
	return b
}

// Withdrawal makes the transaction a withdrawal of the given amount.
func (b *TransactionBuilder) Withdrawal(amount float64) *TransactionBuilder {
	b.tx.Type = model.TransactionWithdrawal
	b.tx.CashChange = model.NewMoneyFromFloat(-amount, b.tx.CashChange.Currency)
	return b
}

// Buy makes the transaction a purchase of quantity shares at the given price.
func (b *TransactionBuilder) Buy(ticker model.Ticker, quantity, price float64) *TransactionBuilder {
	b.tx.Type = model.TransactionBuy
	b.tx.Ticker = ticker
	b.tx.Quantity = decimal.NewFromFloat(quantity)
	b.tx.PricePerShare = model.NewMoneyFromFloat(price, b.tx.CashChange.Currency)
	b.tx.CashChange = model.NewMoneyFromFloat(-quantity*price, b.tx.CashChange.Currency)
	return b
}

// Sell makes the transaction a sale of quantity shares at the given price.
func (b *TransactionBuilder) Sell(ticker model.Ticker, quantity, price float64) *TransactionBuilder {
	b.tx.Type = model.TransactionSell
	b.tx.Ticker = ticker
	b.tx.Quantity = decimal.NewFromFloat(quantity)
	b.tx.PricePerShare = model.NewMoneyFromFloat(price, b.tx.CashChange.Currency)
	b.tx.CashChange = model.NewMoneyFromFloat(quantity*price, b.tx.CashChange.Currency)
	return b
}

// At sets the transaction timestamp.
func (b *TransactionBuilder) At(ts time.Time) *TransactionBuilder {
	b.tx.Timestamp = ts
	return b
}

// WithCurrency sets the cash currency.
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	b.tx.CashChange.Currency = currency
	if b.tx.IsTrade() {
		b.tx.PricePerShare.Currency = currency
	}
	return b
}

// Build appends the transaction and returns it with its assigned sequence
// number.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	appended, err := repository.NewLedgerRepository(db).Append(context.Background(), b.tx)
	if err != nil {
		t.Fatalf("Failed to append test transaction: %v", err)
	}
	return appended
}

// InsertDailyClose stores a single daily close price for ticker on the given
// calendar day.
func InsertDailyClose(t *testing.T, db *sql.DB, ticker model.Ticker, day time.Time, price float64) model.PricePoint {
	t.Helper()

	point := model.PricePoint{
		Ticker:    ticker,
		Price:     model.NewMoneyFromFloat(price, "USD"),
		Timestamp: marketcal.MarketCloseUTC(day),
		Source:    model.SourceProvider,
		Interval:  model.Interval1Day,
	}
	if err := repository.NewPriceRepository(db).UpsertPricePoints(context.Background(), []model.PricePoint{point}); err != nil {
		t.Fatalf("Failed to insert test price: %v", err)
	}
	return point
}

// InsertPricePoint stores an arbitrary price point.
func InsertPricePoint(t *testing.T, db *sql.DB, point model.PricePoint) model.PricePoint {
	t.Helper()

	if err := repository.NewPriceRepository(db).UpsertPricePoints(context.Background(), []model.PricePoint{point}); err != nil {
		t.Fatalf("Failed to insert test price: %v", err)
	}
	return point
}
