// Package ratelimit provides a pluggable rate limiting interface.
//
// Ships an in-memory token bucket (MemoryLimiter) keyed per tenant.
// Deployments that need cross-instance coordination can substitute a
// Redis-backed implementation; the Limiter interface is the contract.
package ratelimit

import "context"

// Limit is the sustained rate and burst capacity for one key.
type Limit struct {
	Rate  float64 // tokens added per second
	Burst int     // maximum tokens (bucket capacity)
}

// PerMinute builds a Limit from a per-minute request budget.
func PerMinute(requests, burst int) Limit {
	return Limit{Rate: float64(requests) / 60, Burst: burst}
}

// Limiter decides whether a request identified by key should be allowed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow returns true if the request should proceed. The key is
	// opaque; callers construct it (e.g. "tenant:acme-retail"). The
	// limit travels with the call so different tenants can carry
	// different budgets over one shared limiter.
	// Returning an error signals a limiter malfunction; callers should
	// treat errors as fail-open (permit the request) rather than
	// blocking traffic.
	Allow(ctx context.Context, key string, lim Limit) (bool, error)

	// Close releases resources (cleanup goroutines, connections).
	Close() error
}

// NoopLimiter permits every request. Used when rate limiting is disabled.
type NoopLimiter struct{}

// Allow always returns true.
func (NoopLimiter) Allow(context.Context, string, Limit) (bool, error) { return true, nil }

// Close is a no-op.
func (NoopLimiter) Close() error { return nil }
