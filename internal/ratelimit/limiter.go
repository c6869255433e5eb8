// Package ratelimit implements token-bucket limits keyed by caller.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type bucket struct {
	tokens float64
	last   time.Time
}

// Memory is a process-local token bucket per key.
type Memory struct {
	rate  float64 // tokens per second
	burst int
	limit int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemory allows perMinute requests per key on average with bursts of burst.
func NewMemory(perMinute, burst int) *Memory {
	return &Memory{
		rate:    float64(perMinute) / 60,
		burst:   burst,
		limit:   perMinute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// SetClock replaces the time source. Intended for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.now = now
}

// Allow consumes one token for key.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(m.burst), last: now}
		m.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(m.burst), b.tokens+elapsed*m.rate)
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		m.sweep(now)
		return Result{Allowed: true, Limit: m.limit, Remaining: int64(b.tokens)}, nil
	}

	wait := math.Ceil((1 - b.tokens) / m.rate)
	return Result{
		Allowed:    false,
		Limit:      m.limit,
		RetryAfter: time.Duration(wait) * time.Second,
	}, nil
}

// sweep drops buckets that have refilled completely. Callers hold m.mu.
func (m *Memory) sweep(now time.Time) {
	if len(m.buckets) < 1024 {
		return
	}
	full := time.Duration(float64(m.burst) / m.rate * float64(time.Second))
	for key, b := range m.buckets {
		if now.Sub(b.last) > full {
			delete(m.buckets, key)
		}
	}
}
