package driven

import (
	"context"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// TokenExchanger talks to the OAuth provider's token endpoint.
type TokenExchanger interface {
	// Exchange trades an authorization code for tokens after consent.
	Exchange(ctx context.Context, code string) (*domain.TokenGrant, error)

	// Refresh trades a refresh token for a new access token.
	// A provider-reported error means the refresh failed; callers must
	// not update persisted expiry on failure.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
}
