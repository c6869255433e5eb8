package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aquatrack/aquatrack/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestEntry creates an intake entry with a unique ID.
func NewTestEntry(t testing.TB, amount int, at time.Time) model.IntakeEntry {
	t.Helper()
	return model.IntakeEntry{
		ID:        UniqueID("entry"),
		Amount:    amount,
		Timestamp: at,
	}
}

// NewTestReminder creates an enabled reminder at the given HH:MM.
func NewTestReminder(t testing.TB, at string) model.Reminder {
	t.Helper()
	return model.Reminder{
		ID:        UniqueID("reminder"),
		Time:      at,
		Message:   model.DefaultReminderMessage,
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}
}

var idSeq struct {
	sync.Mutex
	n int
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	idSeq.Lock()
	idSeq.n++
	n := idSeq.n
	idSeq.Unlock()
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), n)
}
