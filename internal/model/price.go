package model

import (
	"fmt"
	"time"
)

// PriceSource identifies which tier a price point was served from.
type PriceSource string

// Price sources, ordered from fastest to slowest tier.
const (
	SourceCache    PriceSource = "cache"
	SourceStore    PriceSource = "store"
	SourceProvider PriceSource = "provider"
)

// Interval is the sampling interval of a price series.
type Interval string

// Supported price intervals.
const (
	Interval1Day  Interval = "1day"
	Interval1Hour Interval = "1hour"
	Interval5Min  Interval = "5min"
)

// ValidInterval reports whether s is a recognized interval.
func ValidInterval(s string) bool {
	switch Interval(s) {
	case Interval1Day, Interval1Hour, Interval5Min:
		return true
	}
	return false
}

// OHLCV carries optional open/high/low/close/volume data for a price point.
// These fields never participate in dedup or equality.
type OHLCV struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// PricePoint is a single observed price for a ticker at a UTC instant.
// Immutable once created; identity for caching and dedup purposes is
// (ticker, timestamp, source, interval) only.
type PricePoint struct {
	Ticker    Ticker      `json:"ticker"`
	Price     Money       `json:"price"`
	Timestamp time.Time   `json:"timestamp"`
	Source    PriceSource `json:"source"`
	Interval  Interval    `json:"interval"`
	OHLCV     *OHLCV      `json:"ohlcv,omitempty"`
}

// Key returns the identity key used for deduplication and upserts.
func (p PricePoint) Key() string {
	return fmt.Sprintf("%s|%d|%s|%s", p.Ticker, p.Timestamp.UTC().Unix(), p.Source, p.Interval)
}

// WithSource returns a copy of the point relabeled with the given source.
// Used when a store or provider point is served from a faster tier.
func (p PricePoint) WithSource(source PriceSource) PricePoint {
	p.Source = source
	return p
}

// PriceHistory is a price series plus a marker for degraded responses.
// Partial is set when the requested range could not be fully satisfied
// (rate limit exhausted, provider failure, or the provider's trailing window
// not reaching back far enough).
type PriceHistory struct {
	Ticker  Ticker       `json:"ticker"`
	Points  []PricePoint `json:"points"`
	Partial bool         `json:"partial"`
}
