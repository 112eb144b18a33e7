package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driving"
)

// refreshBuffer is how long before expiry a token counts as
// expiring-soon and a refresh is attempted.
const refreshBuffer = 5 * time.Minute

// Ensure TokenService implements the interface.
var _ driving.TokenService = (*TokenService)(nil)

// TokenService manages the OAuth token lifecycle: it decides whether a
// stored token is usable, refreshes it against the provider when it is
// inside the expiry buffer, and persists the outcome. It is the sole
// mutator of token records.
type TokenService struct {
	store     driven.TokenStore
	exchanger driven.TokenExchanger
	log       zerolog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedToken
}

// cachedToken is a short-lived in-memory copy of a usable access
// token, e.g. from a just-completed consent flow. It avoids a store
// read on every call.
type cachedToken struct {
	token string
	// usableUntil is expiry minus the refresh buffer.
	usableUntil time.Time
}

// NewTokenService creates a token lifecycle service.
func NewTokenService(store driven.TokenStore, exchanger driven.TokenExchanger, log zerolog.Logger) *TokenService {
	return &TokenService{
		store:     store,
		exchanger: exchanger,
		log:       log.With().Str("component", "tokens").Logger(),
		now:       time.Now,
		cache:     make(map[string]cachedToken),
	}
}

// AccessToken returns a usable access token for the user.
//
// Fast path: a cached token still outside the refresh buffer is
// returned without a store read. Otherwise the persisted record is
// read and its state resolved; an expiring or stale token is
// refreshed when a refresh token exists. On refresh failure the old
// access token is returned rather than failing outright, since
// providers tolerate brief clock skew; the caller's downstream request
// may still fail and must not retry-refresh in a loop.
func (s *TokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	now := s.now()

	s.mu.RLock()
	if c, ok := s.cache[userID]; ok && now.Before(c.usableUntil) {
		s.mu.RUnlock()
		return c.token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock: a concurrent call
	// may have refreshed already. Two near-simultaneous calls must not
	// trigger two refresh exchanges.
	if c, ok := s.cache[userID]; ok && now.Before(c.usableUntil) {
		return c.token, nil
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotConnected
		}
		return "", fmt.Errorf("get token record: %w", err)
	}

	switch domain.ResolveTokenState(rec, now, refreshBuffer) {
	case domain.TokenNotConnected:
		return "", domain.ErrNotConnected

	case domain.TokenValid:
		s.cacheLocked(userID, rec)
		return rec.AccessToken, nil

	default: // expiring-soon or stale
		if !rec.HasRefreshToken() {
			// No refresh possible. Hand back the token as-is; the
			// downstream auth error signals the need for re-consent.
			return rec.AccessToken, nil
		}
		return s.refreshLocked(ctx, userID, rec)
	}
}

// refreshLocked exchanges the refresh token and persists the result.
// Caller holds the write lock.
func (s *TokenService) refreshLocked(ctx context.Context, userID string, rec *domain.TokenRecord) (string, error) {
	grant, err := s.exchanger.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		// Stale fallback: return the old token, leave the stored
		// record untouched. A failed refresh never updates expiry and
		// never discards the refresh token; it may work again after a
		// transient provider outage.
		s.log.Warn().Err(err).Str("user_id", userID).Msg("token refresh failed, falling back to stored token")
		return rec.AccessToken, nil
	}

	rec.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		// Provider rotated the refresh token.
		rec.RefreshToken = grant.RefreshToken
	}
	rec.Expiry = grant.Expiry
	rec.UpdatedAt = s.now()

	if err := s.store.Save(ctx, *rec); err != nil {
		return "", fmt.Errorf("save refreshed token: %w", err)
	}

	s.cacheLocked(userID, rec)
	s.log.Debug().Str("user_id", userID).Time("expiry", rec.Expiry).Msg("access token refreshed")
	return rec.AccessToken, nil
}

// cacheLocked caches a usable token. Caller holds the write lock.
func (s *TokenService) cacheLocked(userID string, rec *domain.TokenRecord) {
	usableUntil := rec.Expiry.Add(-refreshBuffer)
	if rec.Expiry.IsZero() {
		usableUntil = s.now().Add(time.Hour)
	}
	s.cache[userID] = cachedToken{token: rec.AccessToken, usableUntil: usableUntil}
}

// SaveGrant persists tokens from a completed consent flow. The access
// token and expiry replace any previous grant; an empty refresh token
// in the grant preserves the stored one, so a re-consent that omits it
// does not lose the ability to refresh.
func (s *TokenService) SaveGrant(ctx context.Context, userID, accountEmail string, grant domain.TokenGrant) error {
	if userID == "" || grant.AccessToken == "" {
		return domain.ErrInvalidInput
	}

	rec := domain.TokenRecord{
		UserID:       userID,
		AccountEmail: accountEmail,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Expiry:       grant.Expiry,
		UpdatedAt:    s.now(),
	}

	if rec.RefreshToken == "" {
		if prev, err := s.store.Get(ctx, userID); err == nil && prev.HasRefreshToken() {
			rec.RefreshToken = prev.RefreshToken
		}
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save grant: %w", err)
	}

	s.mu.Lock()
	s.cacheLocked(userID, &rec)
	s.mu.Unlock()

	s.log.Info().Str("user_id", userID).Str("account", accountEmail).Msg("mail account connected")
	return nil
}

// Status reports the user's connection state without side effects.
func (s *TokenService) Status(ctx context.Context, userID string) (*domain.ConnectionStatus, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ConnectionStatus{Connected: false, State: domain.TokenNotConnected}, nil
		}
		return nil, fmt.Errorf("get token record: %w", err)
	}

	return &domain.ConnectionStatus{
		Connected:    true,
		AccountEmail: rec.AccountEmail,
		State:        domain.ResolveTokenState(rec, s.now(), refreshBuffer),
		Expiry:       rec.Expiry,
	}, nil
}

// Disconnect deletes the user's token record and drops the cache.
func (s *TokenService) Disconnect(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete token record: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()

	s.log.Info().Str("user_id", userID).Msg("mail account disconnected")
	return nil
}
