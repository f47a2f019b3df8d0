package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/papertrade/virtual-trading-backend/internal/marketcal"
	"github.com/papertrade/virtual-trading-backend/internal/model"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/testutil"
)

func TestUpsertPricePointsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	point := model.PricePoint{
		Ticker:    "AAPL",
		Price:     model.NewMoneyFromFloat(186.20, "USD"),
		Timestamp: marketcal.MarketCloseUTC(day),
		Source:    model.SourceProvider,
		Interval:  model.Interval1Day,
	}

	for i := 0; i < 3; i++ {
		if err := repo.UpsertPricePoints(context.Background(), []model.PricePoint{point}); err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}

	got, err := repo.GetPrices("AAPL", day, day.AddDate(0, 0, 1), model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 row after repeated upserts, got %d", len(got))
	}
}

func TestUpsertPricePointsUpdatesPrice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	point := testutil.InsertDailyClose(t, db, "AAPL", day, 186.20)

	point.Price = model.NewMoneyFromFloat(190.00, "USD")
	if err := repo.UpsertPricePoints(context.Background(), []model.PricePoint{point}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repo.GetPrices("AAPL", day, day.AddDate(0, 0, 1), model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(got))
	}
	if got[0].Price.String() != "190 USD" {
		t.Errorf("Expected updated price 190 USD, got %s", got[0].Price)
	}
}

func TestGetPricesRangeAndInterval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)

	days := []time.Time{
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		testutil.InsertDailyClose(t, db, "AAPL", day, 180+float64(i))
	}
	// Different interval must not leak into daily queries
	testutil.InsertPricePoint(t, db, model.PricePoint{
		Ticker:    "AAPL",
		Price:     model.NewMoneyFromFloat(181.50, "USD"),
		Timestamp: time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC),
		Source:    model.SourceProvider,
		Interval:  model.Interval1Hour,
	})

	got, err := repo.GetPrices("AAPL", days[1], days[2].AddDate(0, 0, 1), model.Interval1Day)
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 daily rows in range, got %d", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("Expected ascending timestamp order")
	}
}

func TestGetLatestOnOrBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)

	testutil.InsertDailyClose(t, db, "AAPL", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), 180)
	testutil.InsertDailyClose(t, db, "AAPL", time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), 183)

	got, err := repo.GetLatestOnOrBefore("AAPL", time.Date(2024, 3, 12, 23, 0, 0, 0, time.UTC), model.Interval1Day)
	if err != nil {
		t.Fatalf("GetLatestOnOrBefore failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a price point, got nil")
	}
	if d := got.Timestamp.Day(); d != 11 {
		t.Errorf("Expected the March 11 close, got day %d", d)
	}

	none, err := repo.GetLatestOnOrBefore("AAPL", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), model.Interval1Day)
	if err != nil {
		t.Fatalf("GetLatestOnOrBefore failed: %v", err)
	}
	if none != nil {
		t.Errorf("Expected nil before any stored price, got %+v", none)
	}
}

func TestDistinctTickers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	testutil.InsertDailyClose(t, db, "AAPL", day, 186.20)
	testutil.InsertDailyClose(t, db, "AAPL", day.AddDate(0, 0, -1), 185.90)
	testutil.InsertDailyClose(t, db, "TSLA", day, 175.30)

	got, err := repo.DistinctTickers()
	if err != nil {
		t.Fatalf("DistinctTickers failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 tickers, got %d: %v", len(got), got)
	}
}
