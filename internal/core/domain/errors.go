package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Token lifecycle errors.

	// ErrNotConnected indicates the user has no usable OAuth grant.
	// Surfaced as a prompt to (re)connect, never retried automatically.
	ErrNotConnected = errors.New("mail account not connected")

	// ErrTokenRefreshFailed indicates the refresh exchange with the
	// OAuth provider failed. The lifecycle manager falls back to the
	// last-known access token rather than aborting.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Scan errors.

	// ErrRateLimited indicates a sliding-window rate limit rejected the
	// request. Use RateLimitError to carry the retry delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates the mail provider fetch failed
	// (network, quota, malformed response). Safe to retry later.
	ErrProviderUnavailable = errors.New("mail provider unavailable")
)

// RateLimitError is returned when a rate limit rejects a request.
// It wraps ErrRateLimited and carries the decision so callers can
// surface a retry-after delay.
type RateLimitError struct {
	Decision RateLimitDecision
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry in %s", e.Decision.ResetIn.Round(time.Second))
}

// Unwrap allows errors.Is(err, ErrRateLimited) to match.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
