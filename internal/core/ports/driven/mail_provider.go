package driven

import (
	"context"
	"time"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// MailProvider fetches candidate messages from the user's mailbox.
// Implementations bound each call with a page limit and a fixed
// deadline rather than relying on caller cancellation.
type MailProvider interface {
	// ListMessages returns messages received since the given instant,
	// newest first, capped at max. The access token authenticates the
	// call; implementations map provider failures to
	// domain.ErrProviderUnavailable and auth failures to
	// domain.ErrNotConnected.
	ListMessages(ctx context.Context, accessToken string, since time.Time, max int64) ([]domain.EmailMessage, error)

	// AccountEmail fetches the mail account's address for display.
	// Called once after OAuth completion.
	AccountEmail(ctx context.Context, accessToken string) (string, error)
}
