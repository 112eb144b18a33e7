// Package gmail implements the mail provider port against the Gmail
// API. Fetches are read-only, metadata-scoped (subject, sender,
// snippet), bounded by a page limit and a fixed deadline, and
// throttled client-side against the provider quota.
package gmail

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

// fetchTimeout is the conservative fixed deadline for one scan's
// provider calls. A hanging fetch becomes a provider error instead of
// stalling the request.
const fetchTimeout = 45 * time.Second

// Ensure Provider implements the interface.
var _ driven.MailProvider = (*Provider)(nil)

// Provider fetches messages from Gmail.
type Provider struct {
	// query is the job-related search filter appended to the date
	// bound; empty means the built-in default.
	query    string
	throttle *throttle
	log      zerolog.Logger

	// newService is replaceable in tests.
	newService func(ctx context.Context, accessToken string) (*gmailapi.Service, error)
}

// NewProvider creates a Gmail provider.
func NewProvider(query string, log zerolog.Logger) *Provider {
	return &Provider{
		query:      query,
		throttle:   newThrottle(defaultThrottle),
		log:        log.With().Str("component", "gmail").Logger(),
		newService: newGmailService,
	}
}

// newGmailService builds an API client for a single access token.
func newGmailService(ctx context.Context, accessToken string) (*gmailapi.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return gmailapi.NewService(ctx, option.WithTokenSource(ts))
}

// ListMessages returns messages received since the given instant,
// capped at max. Each message carries only subject, sender, snippet
// and receipt time.
func (p *Provider) ListMessages(ctx context.Context, accessToken string, since time.Time, max int64) ([]domain.EmailMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	svc, err := p.newService(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: create gmail client: %w", domain.ErrProviderUnavailable, err)
	}

	if err := p.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	list, err := svc.Users.Messages.List("me").
		Q(buildQuery(since, p.query)).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, p.mapError("list messages", err)
	}

	messages := make([]domain.EmailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if err := p.throttle.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}

		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		if err != nil {
			return nil, p.mapError("get message", err)
		}

		messages = append(messages, messageFromAPI(msg))
	}

	return messages, nil
}

// AccountEmail fetches the mailbox address via the Gmail profile.
func (p *Provider) AccountEmail(ctx context.Context, accessToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	svc, err := p.newService(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: create gmail client: %w", domain.ErrProviderUnavailable, err)
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", p.mapError("get profile", err)
	}
	return profile.EmailAddress, nil
}

// mapError records 429 backoff and maps the failure onto the domain
// taxonomy.
func (p *Provider) mapError(op string, err error) error {
	if IsRateLimited(err) {
		p.throttle.recordRateLimitError(retryAfterSeconds(err))
	}
	p.log.Warn().Err(err).Str("op", op).Msg("gmail call failed")
	return fmt.Errorf("%w: %s: %w", wrapError(err), op, err)
}
