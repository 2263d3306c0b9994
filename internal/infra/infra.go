// Package infra provides shared infrastructure components used across
// the pipeline: an injectable clock, a per-day memo, and rate limiting.
package infra

import (
	"context"
	"sync"
	"time"
)

// --- Clock ---

// Clock abstracts wall time so TTL and calendar logic can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock whose time only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the frozen time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- Day memo ---

// DayMemo holds one value for one calendar day. A value stored on a
// previous day is never returned. Writes swap the whole value under the
// lock so readers never observe a partial result.
type DayMemo[T any] struct {
	mu    sync.RWMutex
	clock Clock
	loc   *time.Location
	day   string
	value T
	set   bool
}

// NewDayMemo creates a memo whose calendar days are evaluated in loc.
func NewDayMemo[T any](clock Clock, loc *time.Location) *DayMemo[T] {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &DayMemo[T]{clock: clock, loc: loc}
}

func (m *DayMemo[T]) today() string {
	return m.clock.Now().In(m.loc).Format("2006-01-02")
}

// Get returns today's value, if one was stored today.
func (m *DayMemo[T]) Get() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero T
	if !m.set || m.day != m.today() {
		return zero, false
	}
	return m.value, true
}

// Set stores v as today's value.
func (m *DayMemo[T]) Set(v T) {
	day := m.today()
	m.mu.Lock()
	m.day, m.value, m.set = day, v, true
	m.mu.Unlock()
}

// Reset forgets the stored value.
func (m *DayMemo[T]) Reset() {
	m.mu.Lock()
	var zero T
	m.value, m.set, m.day = zero, false, ""
	m.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	clock      Clock
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	poll       time.Duration
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(maxTokens, refillRate, SystemClock{})
}

// NewRateLimiterWithClock is NewRateLimiter with an explicit clock.
func NewRateLimiterWithClock(maxTokens int, refillRate time.Duration, clock Clock) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	return &RateLimiter{
		clock:      clock,
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: clock.Now(),
		poll:       100 * time.Millisecond,
	}
}

// TryAcquire takes a token if one is available without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.TryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.poll):
			// Check again after a short sleep.
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := rl.clock.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
