// Package oauth implements the token-endpoint exchange against an
// OAuth provider (authorization code and refresh grants).
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

// GoogleTokenURL is the token endpoint for Google OAuth.
const GoogleTokenURL = "https://oauth2.googleapis.com/token"

// Config holds the OAuth app credentials.
type Config struct {
	// TokenURL is the provider's token endpoint.
	TokenURL string
	// ClientID and ClientSecret identify the OAuth app.
	ClientID     string
	ClientSecret string
	// RedirectURI must match the one used in the consent flow.
	RedirectURI string
}

// Ensure Exchanger implements the interface.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// Exchanger performs token-endpoint exchanges.
type Exchanger struct {
	cfg    Config
	client *http.Client
}

// NewExchanger creates an exchanger. Requests carry a fixed timeout so
// a hanging provider cannot stall a scan indefinitely.
func NewExchanger(cfg Config) *Exchanger {
	if cfg.TokenURL == "" {
		cfg.TokenURL = GoogleTokenURL
	}
	return &Exchanger{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Exchange trades an authorization code for tokens.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*domain.TokenGrant, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", e.cfg.ClientID)
	data.Set("client_secret", e.cfg.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", e.cfg.RedirectURI)

	return e.post(ctx, data)
}

// Refresh trades a refresh token for a new access token. A
// provider-reported error means the refresh failed; the caller must
// not treat the old token as renewed.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", e.cfg.ClientID)
	data.Set("client_secret", e.cfg.ClientSecret)
	data.Set("refresh_token", refreshToken)

	grant, err := e.post(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err)
	}
	return grant, nil
}

// post sends the form to the token endpoint and decodes the response.
func (e *Exchanger) post(ctx context.Context, data url.Values) (*domain.TokenGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token error: %s - %s", errResp.Error, errResp.Description)
		}
		return nil, fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	grant := &domain.TokenGrant{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
	}
	if tokenResp.ExpiresIn > 0 {
		grant.Expiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}
	return grant, nil
}

// ConsentURL builds the provider's consent page URL for the given
// state token and scopes.
func (e *Exchanger) ConsentURL(authURL, state string, scopes []string) string {
	q := url.Values{}
	q.Set("client_id", e.cfg.ClientID)
	q.Set("redirect_uri", e.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("state", state)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	return authURL + "?" + q.Encode()
}
