package driven

import (
	"context"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// TokenStore persists OAuth token records, one per user.
// The token lifecycle service is the only writer.
type TokenStore interface {
	// Get retrieves the token record for a user.
	// Returns domain.ErrNotFound when the user has never connected.
	Get(ctx context.Context, userID string) (*domain.TokenRecord, error)

	// Save stores a token record. Creates if new, updates if exists.
	Save(ctx context.Context, rec domain.TokenRecord) error

	// Delete removes a user's token record on explicit disconnect.
	Delete(ctx context.Context, userID string) error
}
