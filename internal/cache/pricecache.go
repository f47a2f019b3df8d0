// Package cache is the fast key-value tier of the price read path. Entries
// expire after a TTL and are stored msgpack-encoded, so every read hands the
// caller its own decoded copy rather than a pointer into shared state.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/papertrade/virtual-trading-backend/internal/model"
)

// PriceCache holds recent price lookups in memory. Safe for concurrent use.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// cachedPoint is the msgpack wire form of a price point. Money is flattened
// to a fixed-point string so the decimal survives the round trip exactly.
type cachedPoint struct {
	Ticker   string       `msgpack:"ticker"`
	Amount   string       `msgpack:"amount"`
	Currency string       `msgpack:"currency"`
	Unix     int64        `msgpack:"unix"`
	Source   string       `msgpack:"source"`
	Interval string       `msgpack:"interval"`
	OHLCV    *model.OHLCV `msgpack:"ohlcv,omitempty"`
}

// New creates a PriceCache whose entries expire after ttl.
func New(ttl time.Duration, log zerolog.Logger) *PriceCache {
	return &PriceCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		log:     log.With().Str("component", "pricecache").Logger(),
	}
}

// HistoryKey builds the cache key for a history lookup.
func HistoryKey(ticker model.Ticker, start, end time.Time, interval model.Interval) string {
	return fmt.Sprintf("history|%s|%s|%d|%d", ticker, interval, start.UTC().Unix(), end.UTC().Unix())
}

// CurrentKey builds the cache key for a current-price lookup.
func CurrentKey(ticker model.Ticker) string {
	return fmt.Sprintf("current|%s", ticker)
}

// Put stores a price series under the given key.
func (c *PriceCache) Put(key string, points []model.PricePoint) {
	wire := make([]cachedPoint, len(points))
	for i, p := range points {
		wire[i] = cachedPoint{
			Ticker:   p.Ticker.String(),
			Amount:   p.Price.Amount.String(),
			Currency: p.Price.Currency,
			Unix:     p.Timestamp.UTC().Unix(),
			Source:   string(p.Source),
			Interval: string(p.Interval),
			OHLCV:    p.OHLCV,
		}
	}

	data, err := msgpack.Marshal(wire)
	if err != nil {
		// Encoding failure only costs a cache miss later.
		c.log.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}

	c.mu.Lock()
	c.entries[key] = entry{data: data, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Get returns the series stored under key, or false on a miss or expired
// entry. Returned points are fresh copies decoded from the stored bytes.
func (c *PriceCache) Get(key string) ([]model.PricePoint, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}

	var wire []cachedPoint
	if err := msgpack.Unmarshal(e.data, &wire); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to decode cache entry, dropping")
		c.Delete(key)
		return nil, false
	}

	points := make([]model.PricePoint, len(wire))
	for i, w := range wire {
		price, err := model.NewMoneyFromString(w.Amount, w.Currency)
		if err != nil {
			c.Delete(key)
			return nil, false
		}
		points[i] = model.PricePoint{
			Ticker:    model.Ticker(w.Ticker),
			Price:     price,
			Timestamp: time.Unix(w.Unix, 0).UTC(),
			Source:    model.PriceSource(w.Source),
			Interval:  model.Interval(w.Interval),
			OHLCV:     w.OHLCV,
		}
	}
	return points, true
}

// Delete removes an entry.
func (c *PriceCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops all entries.
func (c *PriceCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including any not yet expired.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
