package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/papertrade/virtual-trading-backend/internal/apperrors"
	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Insert persists a new portfolio.
func (r *PortfolioRepository) Insert(ctx context.Context, p model.Portfolio) error {
	query := `
		INSERT INTO portfolio (id, name, currency, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Currency, FormatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

// Get retrieves a portfolio by ID. Returns apperrors.ErrPortfolioNotFound
// when no such portfolio exists.
func (r *PortfolioRepository) Get(id string) (model.Portfolio, error) {
	query := `
		SELECT id, name, currency, created_at
		FROM portfolio
		WHERE id = ?
	`

	var p model.Portfolio
	var createdAtStr string

	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.Name, &p.Currency, &createdAtStr)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// GetAll retrieves all portfolios ordered by name.
func (r *PortfolioRepository) GetAll() ([]model.Portfolio, error) {
	query := `
		SELECT id, name, currency, created_at
		FROM portfolio
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var createdAtStr string

		if err := rows.Scan(&p.ID, &p.Name, &p.Currency, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		p.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}
	return portfolios, nil
}
