package gmail

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttleConfig holds the client-side throttle for Gmail API calls.
// This is distinct from the per-user sliding window on the scan
// endpoint: it protects the provider quota across all users sharing
// this process.
type throttleConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// defaultThrottle is conservative relative to Gmail's quota units.
var defaultThrottle = throttleConfig{RequestsPerSecond: 2.0, BurstSize: 5}

// throttle wraps a token bucket with backoff for 429 responses.
type throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func newThrottle(cfg throttleConfig) *throttle {
	if cfg.RequestsPerSecond <= 0 {
		cfg = defaultThrottle
	}
	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate
// limit, respecting any backoff set by recordRateLimitError.
func (t *throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	retryAt := t.retryAt
	t.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return t.limiter.Wait(ctx)
}

// recordRateLimitError sets a backoff period after a 429 response.
func (t *throttle) recordRateLimitError(retryAfterSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 60
	}
	t.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}
