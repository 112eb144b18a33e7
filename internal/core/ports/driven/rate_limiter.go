package driven

import "github.com/jobtrail-labs/jobtrail/internal/core/domain"

// RateLimiter enforces per-(user, action) sliding-window limits.
// The in-process implementation is correct for a single instance;
// a multi-instance deployment needs an externally backed
// implementation behind this same port.
type RateLimiter interface {
	// Check records and allows the request, or rejects it without
	// recording. Never fails; unknown actions use the default limit.
	Check(userID, action string) domain.RateLimitDecision

	// Sweep removes (user, action) entries idle for twice the largest
	// configured window and returns how many were dropped.
	Sweep() int
}
