package cache

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papertrade/virtual-trading-backend/internal/model"
)

func samplePoints() []model.PricePoint {
	return []model.PricePoint{
		{
			Ticker:    "AAPL",
			Price:     model.NewMoneyFromFloat(186.20, "USD"),
			Timestamp: time.Date(2024, time.January, 15, 21, 0, 0, 0, time.UTC),
			Source:    model.SourceStore,
			Interval:  model.Interval1Day,
			OHLCV:     &model.OHLCV{Open: 185, High: 186.5, Low: 184.5, Close: 186.2, Volume: 1000},
		},
		{
			Ticker:    "AAPL",
			Price:     model.NewMoneyFromFloat(187.00, "USD"),
			Timestamp: time.Date(2024, time.January, 16, 21, 0, 0, 0, time.UTC),
			Source:    model.SourceStore,
			Interval:  model.Interval1Day,
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New(time.Hour, zerolog.Nop())
	key := HistoryKey("AAPL", time.Now().AddDate(0, 0, -5), time.Now(), model.Interval1Day)

	c.Put(key, samplePoints())

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, samplePoints(), got)
}

func TestGetMiss(t *testing.T) {
	c := New(time.Hour, zerolog.Nop())

	_, ok := c.Get("nonexistent")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute, zerolog.Nop())

	now := time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("key", samplePoints())
	_, ok := c.Get("key")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("key")
	assert.False(t, ok)
}

// TestCopiesNotShared guards against callers mutating cached state: each Get
// decodes a fresh copy from the stored bytes.
func TestCopiesNotShared(t *testing.T) {
	c := New(time.Hour, zerolog.Nop())
	c.Put("key", samplePoints())

	first, ok := c.Get("key")
	require.True(t, ok)
	first[0].OHLCV.Close = -1
	first[0].Ticker = "MUTATED"

	second, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, model.Ticker("AAPL"), second[0].Ticker)
	assert.Equal(t, 186.2, second[0].OHLCV.Close)
}

func TestClear(t *testing.T) {
	c := New(time.Hour, zerolog.Nop())
	c.Put("a", samplePoints())
	c.Put("b", samplePoints())
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestKeyBuilders(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	k1 := HistoryKey("AAPL", start, end, model.Interval1Day)
	k2 := HistoryKey("AAPL", start, end, model.Interval1Hour)
	k3 := HistoryKey("MSFT", start, end, model.Interval1Day)

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, "current|AAPL", CurrentKey("AAPL"))
}
