// Package ratelimit bounds outbound calls to the upstream quote provider.
// Two ceilings apply at once: a continuously refilling per-minute bucket and
// a per-day counter that resets at midnight UTC.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Limiter is the process-wide admission controller for provider calls.
// Construct one and inject it into every caller needing admission control;
// it must never live as ambient global state. Safe for concurrent use.
type Limiter struct {
	mu sync.Mutex

	minute *rate.Limiter

	perDay       int
	dayRemaining int
	dayResetAt   time.Time

	now func() time.Time
	log zerolog.Logger
}

// New creates a Limiter with the given per-minute and per-day ceilings.
func New(perMinute, perDay int, log zerolog.Logger) *Limiter {
	return &Limiter{
		minute:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		perDay:       perDay,
		dayRemaining: perDay,
		dayResetAt:   nextMidnightUTC(time.Now()),
		now:          time.Now,
		log:          log.With().Str("component", "ratelimit").Logger(),
	}
}

// CanMakeRequest reports whether a token is currently available in both
// buckets without consuming anything. Because another caller may consume in
// between, use ConsumeToken for the actual admission decision.
func (l *Limiter) CanMakeRequest() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()
	return l.dayRemaining > 0 && l.minute.Tokens() >= 1
}

// ConsumeToken atomically takes one token from both buckets. It succeeds and
// decrements only when both have capacity; on failure neither bucket is
// touched. No request may be made to the provider without a successful call.
func (l *Limiter) ConsumeToken() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()
	if l.dayRemaining <= 0 {
		l.log.Warn().Int("per_day", l.perDay).Msg("daily request quota exhausted")
		return false
	}
	if !l.minute.Allow() {
		l.log.Debug().Msg("per-minute request quota exhausted")
		return false
	}
	l.dayRemaining--
	return true
}

// RemainingToday returns the number of tokens left in the daily bucket.
func (l *Limiter) RemainingToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()
	return l.dayRemaining
}

// rolloverLocked resets the daily counter when the UTC day has changed.
// Caller must hold l.mu.
func (l *Limiter) rolloverLocked() {
	now := l.now()
	if now.Before(l.dayResetAt) {
		return
	}
	l.dayRemaining = l.perDay
	l.dayResetAt = nextMidnightUTC(now)
}

func nextMidnightUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
