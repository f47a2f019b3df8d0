package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// LedgerRepository provides data access methods for the ledger_transaction
// table. The ledger is append-only: this repository has no update or delete
// methods, and must never grow any.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new LedgerRepository with the provided database connection.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append persists a transaction. The insertion sequence (seq) is assigned by
// the database and returned on the stored copy; it breaks ordering ties
// between transactions sharing a timestamp.
func (r *LedgerRepository) Append(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	query := `
		INSERT INTO ledger_transaction (id, portfolio_id, type, timestamp, cash_change, currency, ticker, quantity, price_per_share, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var ticker, quantity, pricePerShare, notes sql.NullString
	if t.Ticker != "" {
		ticker = sql.NullString{String: t.Ticker.String(), Valid: true}
	}
	if t.IsTrade() {
		quantity = sql.NullString{String: t.Quantity.String(), Valid: true}
		pricePerShare = sql.NullString{String: t.PricePerShare.Amount.String(), Valid: true}
	}
	if t.Notes != "" {
		notes = sql.NullString{String: t.Notes, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		string(t.Type),
		FormatTime(t.Timestamp),
		t.CashChange.Amount.String(),
		t.CashChange.Currency,
		ticker,
		quantity,
		pricePerShare,
		notes,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to append ledger transaction: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to read insertion sequence: %w", err)
	}
	t.Seq = seq
	return t, nil
}

// GetByPortfolio retrieves all transactions for a portfolio with timestamp
// <= asOf, in chronological order (timestamp, then insertion sequence).
func (r *LedgerRepository) GetByPortfolio(portfolioID string, asOf time.Time) ([]model.Transaction, error) {
	query := `
		SELECT id, seq, portfolio_id, type, timestamp, cash_change, currency, ticker, quantity, price_per_share, notes, created_at
		FROM ledger_transaction
		WHERE portfolio_id = ?
		AND timestamp <= ?
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := r.db.Query(query, portfolioID, FormatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}

	for rows.Next() {
		var (
			t                                    model.Transaction
			typeStr, timestampStr, createdAtStr  string
			cashChangeStr, currency              string
			ticker, quantity, pricePerShare, nts sql.NullString
		)

		err := rows.Scan(
			&t.ID,
			&t.Seq,
			&t.PortfolioID,
			&typeStr,
			&timestampStr,
			&cashChangeStr,
			&currency,
			&ticker,
			&quantity,
			&pricePerShare,
			&nts,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger_transaction table results: %w", err)
		}

		t.Type = model.TransactionType(typeStr)

		t.Timestamp, err = ParseTime(timestampStr)
		if err != nil {
			return nil, err
		}
		t.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}

		cashAmount, err := ParseDecimal(cashChangeStr)
		if err != nil {
			return nil, err
		}
		t.CashChange = model.NewMoney(cashAmount, currency)

		if ticker.Valid {
			t.Ticker = model.Ticker(ticker.String)
		}
		if quantity.Valid {
			t.Quantity, err = ParseDecimal(quantity.String)
			if err != nil {
				return nil, err
			}
		}
		if pricePerShare.Valid {
			amount, err := ParseDecimal(pricePerShare.String)
			if err != nil {
				return nil, err
			}
			t.PricePerShare = model.NewMoney(amount, currency)
		}
		if nts.Valid {
			t.Notes = nts.String
		}

		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_transaction table: %w", err)
	}
	return transactions, nil
}

// HeldTickers returns the distinct tickers that appear in any BUY or SELL
// transaction across all portfolios. The refresh job uses this to decide
// which symbols to keep current.
func (r *LedgerRepository) HeldTickers() ([]model.Ticker, error) {
	query := `
		SELECT DISTINCT ticker
		FROM ledger_transaction
		WHERE ticker IS NOT NULL
		ORDER BY ticker ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query held tickers: %w", err)
	}
	defer rows.Close()

	tickers := []model.Ticker{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, model.Ticker(symbol))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating held tickers: %w", err)
	}
	return tickers, nil
}
