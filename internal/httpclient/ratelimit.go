package httpclient

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterRegistry hands out one token bucket per source so that
// concurrent callers of the same provider share its request budget.
type RateLimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiterRegistry creates an empty registry.
func NewRateLimiterRegistry() *RateLimiterRegistry {
	return &RateLimiterRegistry{limiters: make(map[string]*rate.Limiter)}
}

// Limiter returns the shared limiter for a source, creating it on first use.
// rps <= 0 means unlimited.
func (r *RateLimiterRegistry) Limiter(source string, rps float64) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[source]; ok {
		return limiter
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	limiter := rate.NewLimiter(limit, 1)
	r.limiters[source] = limiter
	return limiter
}

// Wait blocks until the source's limiter grants a token or the context ends.
func (r *RateLimiterRegistry) Wait(ctx context.Context, source string, rps float64) error {
	return r.Limiter(source, rps).Wait(ctx)
}
