package driven

import (
	"context"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// EventStore persists accepted job events and the imported-message
// index used to keep repeated scans idempotent.
type EventStore interface {
	// SaveEvents stores newly accepted events and marks their message
	// IDs as imported.
	SaveEvents(ctx context.Context, events []domain.JobEvent) error

	// ListByUser returns a user's stored events, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.JobEvent, error)

	// KnownMessageIDs returns the set of message IDs already imported
	// for a user.
	KnownMessageIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}
