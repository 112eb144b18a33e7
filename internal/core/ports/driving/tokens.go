package driving

import (
	"context"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// TokenService manages the OAuth token lifecycle for mail access.
type TokenService interface {
	// AccessToken returns a usable access token for the user,
	// refreshing transparently when the stored token is inside the
	// expiry buffer. Returns domain.ErrNotConnected when no grant
	// exists. On refresh failure the previous token is returned as a
	// best-effort fallback; the downstream call may still fail.
	AccessToken(ctx context.Context, userID string) (string, error)

	// SaveGrant persists tokens obtained from a completed consent
	// flow and primes the in-memory cache.
	SaveGrant(ctx context.Context, userID, accountEmail string, grant domain.TokenGrant) error

	// Status reports the user's connection state.
	Status(ctx context.Context, userID string) (*domain.ConnectionStatus, error)

	// Disconnect deletes the user's token record.
	Disconnect(ctx context.Context, userID string) error
}
