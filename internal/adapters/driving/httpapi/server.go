// Package httpapi exposes the scan pipeline over HTTP. Handlers stay
// thin: they translate requests into core calls and map the domain
// error taxonomy onto status codes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driving"
)

// GoogleAuthURL is the consent page for Google OAuth.
const GoogleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

// gmailScopes is the read-only scope set requested at consent.
var gmailScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
}

// ConsentFlow is the slice of the OAuth exchanger the HTTP surface
// needs for the connect flow.
type ConsentFlow interface {
	Exchange(ctx context.Context, code string) (*domain.TokenGrant, error)
	ConsentURL(authURL, state string, scopes []string) string
}

// Server is the HTTP driving adapter.
type Server struct {
	mux       *http.ServeMux
	tokens    driving.TokenService
	scans     driving.ScanService
	events    driven.EventStore
	mail      driven.MailProvider
	consent   ConsentFlow
	jwtSecret []byte
	log       zerolog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates the HTTP server and registers its routes.
func New(
	tokens driving.TokenService,
	scans driving.ScanService,
	events driven.EventStore,
	mail driven.MailProvider,
	consent ConsentFlow,
	jwtSecret string,
	log zerolog.Logger,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		tokens:    tokens,
		scans:     scans,
		events:    events,
		mail:      mail,
		consent:   consent,
		jwtSecret: []byte(jwtSecret),
		log:       log.With().Str("component", "http").Logger(),
		now:       time.Now,
	}
	s.routes()
	return s
}

// routes registers all endpoints. Everything under /api requires a
// bearer token; the OAuth callback authenticates via the state token
// instead, since the provider redirects the browser without headers.
func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/gmail/callback", s.handleCallback)

	s.mux.Handle("GET /api/gmail/connect", s.requireAuth(s.handleConnect))
	s.mux.Handle("GET /api/gmail/status", s.requireAuth(s.handleStatus))
	s.mux.Handle("DELETE /api/gmail/connection", s.requireAuth(s.handleDisconnect))
	s.mux.Handle("POST /api/gmail/scan", s.requireAuth(s.handleScan))
	s.mux.Handle("GET /api/events", s.requireAuth(s.handleListEvents))
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}
