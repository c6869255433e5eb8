package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/storage"
	"github.com/aquatrack/aquatrack/internal/testutil"
)

var errDiskFull = errors.New("disk full")

// flakyStorage wraps a Storage and fails writes while failWrites is set.
// When failSuffix is set, only Sets of keys ending in it fail.
type flakyStorage struct {
	storage.Storage
	failWrites atomic.Bool
	failSuffix atomic.Value // string
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.failWrites.Load() {
		return errDiskFull
	}
	if suffix, _ := f.failSuffix.Load().(string); suffix != "" && strings.HasSuffix(key, suffix) {
		return errDiskFull
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error {
	if f.failWrites.Load() {
		return errDiskFull
	}
	return f.Storage.Delete(ctx, key)
}

// testHasher keeps argon2 cheap in tests.
var testHasher = auth.NewHasher(auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})

// start is 10:00 UTC on a fixed day.
var start = time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

func newTestAuth(t *testing.T, st storage.Storage, recorder metrics.Recorder) *AuthStore {
	t.Helper()
	a := NewAuthStore(st, auth.NewTokenIssuer("test-secret", 0), testutil.DiscardLogger(), recorder)
	a.SetPasswordHasher(testHasher)
	return a
}

func newTestHydration(t *testing.T, st storage.Storage, clock *testutil.Clock, recorder metrics.Recorder) *HydrationStore {
	t.Helper()
	h := NewHydrationStore(st, time.UTC, testutil.DiscardLogger(), recorder)
	h.SetClock(clock.Now)
	return h
}
