package driving

import (
	"context"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// ScanService runs rate-limited scan passes over a user's mailbox.
type ScanService interface {
	// Scan rate-limits the caller, obtains an access token, fetches a
	// bounded set of recent messages, classifies each, and returns
	// newly detected job events.
	//
	// Fails with a domain.RateLimitError when the limiter rejects,
	// domain.ErrNotConnected when no usable token exists, and
	// domain.ErrProviderUnavailable when the mail fetch fails.
	Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanResult, error)
}
