package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPerMinute(t *testing.T) {
	lim := PerMinute(120, 20)
	if lim.Rate != 2 {
		t.Fatalf("expected rate 2 tokens/s, got %f", lim.Rate)
	}
	if lim.Burst != 20 {
		t.Fatalf("expected burst 20, got %d", lim.Burst)
	}
}

func TestIPKeyFunc(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:54321", "192.168.1.1"},
		{"[::1]:8080", "[::1]"},
		{"10.0.0.5", "10.0.0.5"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remoteAddr
		if got := IPKeyFunc(r); got != tt.want {
			t.Errorf("IPKeyFunc(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

// errorLimiter always fails; used to test fail-open behavior.
type errorLimiter struct{}

func (errorLimiter) Allow(context.Context, string, Limit) (bool, error) {
	return false, fmt.Errorf("backend down")
}
func (errorLimiter) Close() error { return nil }

// denyLimiter always denies.
type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, Limit) (bool, error) { return false, nil }
func (denyLimiter) Close() error                                       { return nil }

func tenantLimits(*http.Request) (string, Limit) {
	return "tenant:test", Limit{Rate: 2, Burst: 3}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAllows(t *testing.T) {
	m := NewMemoryLimiter()
	defer closeLimiter(t, m)

	h := Middleware(m, tenantLimits, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestMiddlewareDeniesWith429(t *testing.T) {
	h := Middleware(denyLimiter{}, tenantLimits, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "rate_limited") {
		t.Fatalf("expected rate_limited error code in body, got %s", rec.Body.String())
	}
}

func TestMiddlewareFailsOpenOnError(t *testing.T) {
	h := Middleware(errorLimiter{}, tenantLimits, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("limiter errors should fail open, got %d", rec.Code)
	}
}

func TestMiddlewareSkipsEmptyKey(t *testing.T) {
	skip := func(*http.Request) (string, Limit) { return "", Limit{} }
	h := Middleware(denyLimiter{}, skip, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("empty key should skip limiting, got %d", rec.Code)
	}
}

func TestMiddlewareNilLimiterPassesThrough(t *testing.T) {
	h := Middleware(nil, tenantLimits, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("nil limiter should pass through, got %d", rec.Code)
	}
}
