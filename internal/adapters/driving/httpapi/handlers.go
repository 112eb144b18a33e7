package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConnect returns the provider consent URL for the caller. The
// state parameter carries the user id through the redirect.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	state, err := s.signState(userID(r))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign state token")
		s.sendError(w, http.StatusInternalServerError, "failed to start connect flow")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]string{
		"auth_url": s.consent.ConsentURL(GoogleAuthURL, state, gmailScopes),
	})
}

// handleCallback completes the consent flow: it exchanges the
// authorization code, resolves the connected account's address and
// persists the grant.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if provErr := r.URL.Query().Get("error"); provErr != "" {
		s.sendError(w, http.StatusBadRequest, "provider denied consent: "+provErr)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.sendError(w, http.StatusBadRequest, "missing code parameter")
		return
	}

	uid, err := s.parseState(r.URL.Query().Get("state"))
	if err != nil {
		s.sendError(w, http.StatusUnauthorized, "invalid state parameter")
		return
	}

	grant, err := s.consent.Exchange(r.Context(), code)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", uid).Msg("code exchange failed")
		s.sendError(w, http.StatusBadGateway, "code exchange failed")
		return
	}

	email, err := s.mail.AccountEmail(r.Context(), grant.AccessToken)
	if err != nil {
		// The grant is still usable without the address.
		s.log.Warn().Err(err).Str("user_id", uid).Msg("could not resolve account email")
	}

	if err := s.tokens.SaveGrant(r.Context(), uid, email, *grant); err != nil {
		s.log.Error().Err(err).Str("user_id", uid).Msg("failed to store grant")
		s.sendError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]any{
		"connected":     true,
		"account_email": email,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.tokens.Status(r.Context(), userID(r))
	if err != nil {
		s.log.Error().Err(err).Msg("status lookup failed")
		s.sendError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	s.sendJSON(w, http.StatusOK, status)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.tokens.Disconnect(r.Context(), userID(r)); err != nil {
		s.log.Error().Err(err).Msg("disconnect failed")
		s.sendError(w, http.StatusInternalServerError, "disconnect failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scanRequestBody struct {
	LookbackDays int `json:"lookback_days"`
}

// handleScan runs a mailbox scan for the caller and persists any new
// job events it discovers.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var body scanRequestBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.sendError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body.LookbackDays < 0 {
		s.sendError(w, http.StatusBadRequest, "lookback_days must not be negative")
		return
	}

	known, err := s.events.KnownMessageIDs(r.Context(), uid)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", uid).Msg("failed to load imported message index")
		s.sendError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	result, err := s.scans.Scan(r.Context(), domain.ScanRequest{
		UserID:          uid,
		LookbackDays:    body.LookbackDays,
		KnownMessageIDs: known,
	})
	if err != nil {
		s.writeScanError(w, uid, err)
		return
	}

	if len(result.NewEvents) > 0 {
		if err := s.events.SaveEvents(r.Context(), result.NewEvents); err != nil {
			s.log.Error().Err(err).Str("user_id", uid).Msg("failed to persist job events")
			s.sendError(w, http.StatusInternalServerError, "failed to persist results")
			return
		}
	}

	s.sendJSON(w, http.StatusOK, result)
}

// writeScanError maps the scan error taxonomy onto status codes.
func (s *Server) writeScanError(w http.ResponseWriter, uid string, err error) {
	var rle *domain.RateLimitError
	switch {
	case errors.As(err, &rle):
		retryAfter := int(math.Ceil(rle.Decision.ResetIn.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		s.sendJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "rate limit exceeded",
			"retry_after": retryAfter,
			"limit":       rle.Decision.Limit,
		})
	case errors.Is(err, domain.ErrNotConnected):
		s.sendError(w, http.StatusConflict, "gmail is not connected")
	case errors.Is(err, domain.ErrInvalidInput):
		s.sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		s.log.Warn().Err(err).Str("user_id", uid).Msg("provider error during scan")
		s.sendError(w, http.StatusBadGateway, "mail provider unavailable")
	default:
		s.log.Error().Err(err).Str("user_id", uid).Msg("scan failed")
		s.sendError(w, http.StatusInternalServerError, "scan failed")
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.ListByUser(r.Context(), userID(r))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list job events")
		s.sendError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []domain.JobEvent{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
