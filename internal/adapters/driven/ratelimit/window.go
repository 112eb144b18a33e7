// Package ratelimit provides an in-process sliding-window rate
// limiter keyed by (user, action).
//
// Unlike a fixed-bucket counter, a burst can never exceed the
// configured maximum in any trailing window interval. State is
// process-local: a multi-instance deployment must back the
// driven.RateLimiter port with a shared store instead.
package ratelimit

import (
	"sync"
	"time"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

// DefaultLimits provides the built-in action configurations.
var DefaultLimits = map[string]domain.ActionLimit{
	domain.ActionGmailScan: {Max: 5, Window: 60 * time.Second},
	domain.ActionDefault:   {Max: 100, Window: 60 * time.Second},
}

// Ensure Limiter implements the interface.
var _ driven.RateLimiter = (*Limiter)(nil)

// windowKey identifies one (user, action) window.
type windowKey struct {
	userID string
	action string
}

// Limiter is a mutex-guarded sliding-window limiter. Windows are
// created lazily on first request and pruned on every check; Sweep
// garbage-collects idle entries.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]domain.ActionLimit
	windows map[windowKey][]time.Time

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a limiter with the given action limits. Actions missing
// from the map fall back to the "default" entry; a nil or incomplete
// map is filled from DefaultLimits.
func New(limits map[string]domain.ActionLimit) *Limiter {
	merged := make(map[string]domain.ActionLimit, len(DefaultLimits))
	for action, limit := range DefaultLimits {
		merged[action] = limit
	}
	for action, limit := range limits {
		if limit.Max > 0 && limit.Window > 0 {
			merged[action] = limit
		}
	}
	return &Limiter{
		limits:  merged,
		windows: make(map[windowKey][]time.Time),
		now:     time.Now,
	}
}

// Check allows or rejects a request. A rejected attempt is not
// recorded, so waiting out ResetIn always recovers capacity. Never
// fails; unknown actions use the default configuration.
func (l *Limiter) Check(userID, action string) domain.RateLimitDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.limitFor(action)
	now := l.now()
	key := windowKey{userID: userID, action: action}

	// Drop timestamps that have left the trailing window.
	window := l.windows[key]
	cutoff := now.Add(-limit.Window)
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit.Max {
		l.windows[key] = kept
		return domain.RateLimitDecision{
			Allowed:   false,
			Remaining: 0,
			ResetIn:   kept[0].Add(limit.Window).Sub(now),
			Limit:     limit.Max,
		}
	}

	kept = append(kept, now)
	l.windows[key] = kept

	dec := domain.RateLimitDecision{
		Allowed:   true,
		Remaining: limit.Max - len(kept),
		Limit:     limit.Max,
	}
	if dec.Remaining == 0 {
		dec.ResetIn = kept[0].Add(limit.Window).Sub(now)
	}
	return dec
}

// Sweep removes windows whose newest timestamp is older than twice
// the largest configured window, bounding memory for churning users.
// Run it periodically, not per request.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var largest time.Duration
	for _, limit := range l.limits {
		if limit.Window > largest {
			largest = limit.Window
		}
	}

	cutoff := l.now().Add(-2 * largest)
	removed := 0
	for key, window := range l.windows {
		if len(window) == 0 || window[len(window)-1].Before(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// SetLimits replaces the action limit table, e.g. after a config
// reload. Existing windows keep their recorded timestamps.
func (l *Limiter) SetLimits(limits map[string]domain.ActionLimit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]domain.ActionLimit, len(DefaultLimits))
	for action, limit := range DefaultLimits {
		merged[action] = limit
	}
	for action, limit := range limits {
		if limit.Max > 0 && limit.Window > 0 {
			merged[action] = limit
		}
	}
	l.limits = merged
}

// limitFor resolves an action's limit. Caller holds the lock.
func (l *Limiter) limitFor(action string) domain.ActionLimit {
	if limit, ok := l.limits[action]; ok {
		return limit
	}
	return l.limits[domain.ActionDefault]
}
