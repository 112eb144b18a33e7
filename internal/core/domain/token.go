package domain

import "time"

// TokenRecord stores a user's OAuth tokens for the mail provider.
// At most one record exists per user; the token lifecycle service is
// the sole mutator.
type TokenRecord struct {
	// UserID identifies the owning user.
	UserID string `json:"user_id"`

	// AccountEmail is the mail account the grant belongs to, fetched
	// from the provider's userinfo endpoint after consent.
	AccountEmail string `json:"account_email,omitempty"`

	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens without
	// re-consent. Empty when the provider did not issue one; the grant
	// is then refreshable only by repeating the consent flow.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRefreshToken returns true if a refresh token is available.
func (r *TokenRecord) HasRefreshToken() bool {
	return r.RefreshToken != ""
}

// TokenGrant is the result of a token-endpoint exchange
// (authorization code or refresh grant).
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// TokenState describes the validity of a stored access token.
// Transitions are driven solely by (now, expiry, refresh token
// presence), which keeps the refresh-failure fallback a named path
// instead of an incidental one.
type TokenState string

const (
	// TokenNotConnected means no token record exists for the user.
	TokenNotConnected TokenState = "not-connected"
	// TokenValid means the access token is usable without refresh.
	TokenValid TokenState = "valid"
	// TokenExpiringSoon means the token is inside the refresh buffer
	// but not yet expired. A refresh should be attempted if possible.
	TokenExpiringSoon TokenState = "expiring-soon"
	// TokenStale means the access token has expired. It may still be
	// accepted briefly by the provider; callers must be prepared for
	// the downstream call to fail.
	TokenStale TokenState = "stale"
)

// ResolveTokenState computes the validity state of a record at the
// given instant. A nil record is TokenNotConnected. A zero expiry is
// treated as valid (some grants never report an expiry).
func ResolveTokenState(r *TokenRecord, now time.Time, buffer time.Duration) TokenState {
	if r == nil || r.AccessToken == "" {
		return TokenNotConnected
	}
	if r.Expiry.IsZero() {
		return TokenValid
	}
	switch {
	case now.Before(r.Expiry.Add(-buffer)):
		return TokenValid
	case now.Before(r.Expiry):
		return TokenExpiringSoon
	default:
		return TokenStale
	}
}

// ConnectionStatus reports a user's mail connection as seen by callers.
type ConnectionStatus struct {
	Connected    bool       `json:"connected"`
	AccountEmail string     `json:"account_email,omitempty"`
	State        TokenState `json:"state"`
	Expiry       time.Time  `json:"expiry,omitempty"`
}
