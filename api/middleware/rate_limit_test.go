package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksAfterLimitPerIP(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("discount", time.Minute, 2), limiter, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		case i == 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			if rec.Header().Get("Retry-After") != "60" {
				t.Fatalf("unexpected Retry-After %q", rec.Header().Get("Retry-After"))
			}
		}
	}

	other := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", nil)
	other.Header.Set("X-Forwarded-For", "9.9.9.9, 1.2.3.4")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client should not be limited, got %d", rec.Code)
	}
	if _, ok := limiter.counts["discount:9.9.9.9"]; !ok {
		t.Fatalf("expected first forwarded address as scope, got %v", limiter.counts)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 1), &fakeLimiter{err: errors.New("redis down")}, nil)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("limiter errors should not block, got %d", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	base := okHandler()
	if got := RateLimit(NewRateLimitPolicy("x", 0, 5), &fakeLimiter{}, nil)(base); got == nil {
		t.Fatal("expected handler")
	}
	rec := httptest.NewRecorder()
	RateLimit(NewRateLimitPolicy("x", time.Minute, 1), nil, nil)(base).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("nil limiter should pass through, got %d", rec.Code)
	}
}
