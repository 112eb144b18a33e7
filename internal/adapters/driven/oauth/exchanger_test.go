package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

func newTestExchanger(handler http.HandlerFunc) (*Exchanger, *httptest.Server) {
	srv := httptest.NewServer(handler)
	e := NewExchanger(Config{
		TokenURL:     srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/callback",
	})
	return e, srv
}

func TestExchanger_Refresh(t *testing.T) {
	e, srv := newTestExchanger(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "client", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "new-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	defer srv.Close()

	grant, err := e.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", grant.AccessToken)
	assert.Empty(t, grant.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), grant.Expiry, 5*time.Second)
}

func TestExchanger_Refresh_ProviderError(t *testing.T) {
	e, srv := newTestExchanger(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Token has been expired or revoked.",
		})
	})
	defer srv.Close()

	_, err := e.Refresh(context.Background(), "revoked")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenRefreshFailed)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestExchanger_Exchange(t *testing.T) {
	e, srv := newTestExchanger(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "consent-code", r.Form.Get("code"))
		assert.Equal(t, "http://localhost/callback", r.Form.Get("redirect_uri"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3599,
		})
	})
	defer srv.Close()

	grant, err := e.Exchange(context.Background(), "consent-code")
	require.NoError(t, err)
	assert.Equal(t, "access", grant.AccessToken)
	assert.Equal(t, "refresh", grant.RefreshToken)
}

func TestExchanger_MissingAccessToken(t *testing.T) {
	e, srv := newTestExchanger(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"})
	})
	defer srv.Close()

	_, err := e.Exchange(context.Background(), "code")
	assert.ErrorContains(t, err, "missing access_token")
}

func TestExchanger_ConsentURL(t *testing.T) {
	e := NewExchanger(Config{
		ClientID:    "client",
		RedirectURI: "http://localhost/callback",
	})

	u := e.ConsentURL("https://accounts.google.com/o/oauth2/v2/auth", "state-123",
		[]string{"openid", "https://www.googleapis.com/auth/gmail.readonly"})

	assert.Contains(t, u, "client_id=client")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "gmail.readonly")
}
