package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// PriceRepository provides data access methods for the price_point table,
// the durable middle tier of the price read path.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// UpsertPricePoints inserts the given points, updating the non-key fields of
// any row that already exists for the same (ticker, timestamp, source,
// interval). Repeated upserts of the same key are idempotent, which is what
// makes concurrent writers (live requests and the refresh job) safe without
// locking.
func (r *PriceRepository) UpsertPricePoints(ctx context.Context, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `
		INSERT INTO price_point (id, ticker, timestamp, source, interval, price, currency, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, timestamp, source, interval) DO UPDATE SET
			price = excluded.price,
			currency = excluded.currency,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin price upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		var open, high, low, closePrice sql.NullFloat64
		var volume sql.NullInt64
		if p.OHLCV != nil {
			open = sql.NullFloat64{Float64: p.OHLCV.Open, Valid: true}
			high = sql.NullFloat64{Float64: p.OHLCV.High, Valid: true}
			low = sql.NullFloat64{Float64: p.OHLCV.Low, Valid: true}
			closePrice = sql.NullFloat64{Float64: p.OHLCV.Close, Valid: true}
			volume = sql.NullInt64{Int64: p.OHLCV.Volume, Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			uuid.New().String(),
			p.Ticker.String(),
			FormatTime(p.Timestamp),
			string(p.Source),
			string(p.Interval),
			p.Price.Amount.String(),
			p.Price.Currency,
			open, high, low, closePrice, volume,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert price point %s: %w", p.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}
	return nil
}

// GetPrices retrieves points for a ticker and interval with timestamp in the
// inclusive range [start, end], sorted oldest first.
func (r *PriceRepository) GetPrices(ticker model.Ticker, start, end time.Time, interval model.Interval) ([]model.PricePoint, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start (%s) must be before or equal to end (%s)",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	query := `
		SELECT ticker, timestamp, source, interval, price, currency, open, high, low, close, volume
		FROM price_point
		WHERE ticker = ?
		AND interval = ?
		AND timestamp >= ?
		AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Query(query, ticker.String(), string(interval), FormatTime(start), FormatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_point table: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetLatestOnOrBefore retrieves the most recent point for a ticker and
// interval with timestamp <= instant. Returns nil when no such point exists.
func (r *PriceRepository) GetLatestOnOrBefore(ticker model.Ticker, instant time.Time, interval model.Interval) (*model.PricePoint, error) {
	query := `
		SELECT ticker, timestamp, source, interval, price, currency, open, high, low, close, volume
		FROM price_point
		WHERE ticker = ?
		AND interval = ?
		AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	rows, err := r.db.Query(query, ticker.String(), string(interval), FormatTime(instant))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_point table: %w", err)
	}
	defer rows.Close()

	points, err := scanPricePoints(rows)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	return &points[0], nil
}

// DistinctTickers returns every ticker that has at least one stored point.
// Used by the supported-tickers listing and the background refresh job.
func (r *PriceRepository) DistinctTickers() ([]model.Ticker, error) {
	rows, err := r.db.Query(`SELECT DISTINCT ticker FROM price_point ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct tickers: %w", err)
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
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}
	return tickers, nil
}

// scanPricePoints converts query rows into price points.
func scanPricePoints(rows *sql.Rows) ([]model.PricePoint, error) {
	points := []model.PricePoint{}

	for rows.Next() {
		var (
			tickerStr, timestampStr, sourceStr, intervalStr string
			priceStr, currency                              string
			open, high, low, closePrice                     sql.NullFloat64
			volume                                          sql.NullInt64
		)

		err := rows.Scan(
			&tickerStr,
			&timestampStr,
			&sourceStr,
			&intervalStr,
			&priceStr,
			&currency,
			&open, &high, &low, &closePrice, &volume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price_point table results: %w", err)
		}

		timestamp, err := ParseTime(timestampStr)
		if err != nil {
			return nil, err
		}
		amount, err := ParseDecimal(priceStr)
		if err != nil {
			return nil, err
		}

		p := model.PricePoint{
			Ticker:    model.Ticker(tickerStr),
			Price:     model.NewMoney(amount, currency),
			Timestamp: timestamp,
			Source:    model.PriceSource(sourceStr),
			Interval:  model.Interval(intervalStr),
		}
		if closePrice.Valid {
			p.OHLCV = &model.OHLCV{
				Open:   open.Float64,
				High:   high.Float64,
				Low:    low.Float64,
				Close:  closePrice.Float64,
				Volume: volume.Int64,
			}
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_point table: %w", err)
	}
	return points, nil
}
