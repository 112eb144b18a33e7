package gmail

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// IsUnauthorized returns true if the error indicates invalid or
// expired credentials.
func IsUnauthorized(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden
	}
	return false
}

// IsRateLimited returns true if the error indicates the provider's
// own rate limit was exceeded.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// retryAfterSeconds extracts a Retry-After hint from a 429 response,
// or 0 when absent.
func retryAfterSeconds(err error) int {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	if v := gerr.Header.Get("Retry-After"); v != "" {
		secs := 0
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0
			}
			secs = secs*10 + int(r-'0')
		}
		return secs
	}
	return 0
}

// wrapError maps a Gmail API error onto the domain taxonomy: auth
// failures mean the grant is unusable (reconnect), everything else is
// a retryable provider failure.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsUnauthorized(err) {
		return domain.ErrNotConnected
	}
	return domain.ErrProviderUnavailable
}
