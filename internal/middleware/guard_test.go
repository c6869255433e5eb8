package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/model"
	"github.com/aquatrack/aquatrack/internal/ratelimit"
	"github.com/aquatrack/aquatrack/internal/testutil"
)

type fakeSessions struct {
	loading bool
	token   string
	user    *model.User
}

func (f fakeSessions) Loading() bool { return f.loading }

func (f fakeSessions) VerifyToken(token string) (*model.User, error) {
	if f.token == "" || token != f.token {
		return nil, model.ErrInvalidSession
	}
	return f.user, nil
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	ada := &model.User{ID: "user-1", Name: "Ada"}
	active := fakeSessions{token: "good", user: ada}

	tests := []struct {
		name         string
		sessions     fakeSessions
		header       string
		query        string
		wantStatus   int
		wantLocation string
	}{
		{"loading", fakeSessions{loading: true}, "Bearer good", "", http.StatusServiceUnavailable, ""},
		{"signed out", fakeSessions{}, "Bearer good", "", http.StatusUnauthorized, LoginPath},
		{"no token", active, "", "", http.StatusUnauthorized, LoginPath},
		{"wrong token", active, "Bearer stale", "", http.StatusUnauthorized, LoginPath},
		{"wrong scheme", active, "Basic good", "", http.StatusUnauthorized, LoginPath},
		{"bearer", active, "Bearer good", "", http.StatusOK, ""},
		{"lowercase scheme", active, "bearer good", "", http.StatusOK, ""},
		{"query token", active, "", "good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *model.User
			handler := RequireSession(tt.sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = auth.UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			target := "/api/v1/hydration"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
			if tt.wantStatus == http.StatusOK && (got == nil || got.ID != ada.ID) {
				t.Errorf("user not in context: %+v", got)
			}
		})
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemory(60, 2)
	limiter.SetClock(testutil.NewClock(time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)).Now)

	handler := RateLimitIP(limiter, testutil.DiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1:5000"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i+1, rec.Code)
		}
	}

	rec := send("10.0.0.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}

	if rec := send("10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Errorf("other client throttled: %d", rec.Code)
	}
}

func TestRateLimitIP_FailsOpen(t *testing.T) {
	t.Parallel()

	handler := RateLimitIP(failingLimiter{}, testutil.DiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when the limiter fails", rec.Code)
	}
}
