package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// --- Mock implementations for scan testing ---
// Note: These are prefixed with "scan" to avoid conflicts with tokens_test.go mocks.

// scanMockLimiter implements driven.RateLimiter for testing.
type scanMockLimiter struct {
	decision domain.RateLimitDecision
	checks   int
}

func (m *scanMockLimiter) Check(_, _ string) domain.RateLimitDecision {
	m.checks++
	return m.decision
}

func (m *scanMockLimiter) Sweep() int { return 0 }

// scanMockTokens implements driving.TokenService for testing.
type scanMockTokens struct {
	token string
	err   error
}

func (m *scanMockTokens) AccessToken(_ context.Context, _ string) (string, error) {
	return m.token, m.err
}

func (m *scanMockTokens) SaveGrant(_ context.Context, _, _ string, _ domain.TokenGrant) error {
	return nil
}

func (m *scanMockTokens) Status(_ context.Context, _ string) (*domain.ConnectionStatus, error) {
	return nil, nil
}

func (m *scanMockTokens) Disconnect(_ context.Context, _ string) error { return nil }

// scanMockMail implements driven.MailProvider for testing.
type scanMockMail struct {
	messages []domain.EmailMessage
	err      error
	gotSince time.Time
	gotMax   int64
}

func (m *scanMockMail) ListMessages(_ context.Context, _ string, since time.Time, max int64) ([]domain.EmailMessage, error) {
	m.gotSince = since
	m.gotMax = max
	if m.err != nil {
		return nil, m.err
	}
	return m.messages, nil
}

func (m *scanMockMail) AccountEmail(_ context.Context, _ string) (string, error) {
	return "user@gmail.com", nil
}

// scanMockClassifier implements driven.Classifier for testing.
// Subjects prefixed with a category name classify as that category.
type scanMockClassifier struct{}

func (scanMockClassifier) Classify(msg domain.EmailMessage) domain.Classification {
	for _, cat := range []domain.Category{domain.CategoryApplied, domain.CategoryInterview, domain.CategoryRejection} {
		if len(msg.Subject) >= len(cat) && msg.Subject[:len(cat)] == string(cat) {
			return domain.Classification{
				Category:   cat,
				Confidence: 0.8,
				Extracted:  &domain.Extracted{Company: "Acme", Role: "Engineer", Date: msg.ReceivedAt},
			}
		}
	}
	return domain.Classification{Category: domain.CategoryNotJob}
}

func allowAll() *scanMockLimiter {
	return &scanMockLimiter{decision: domain.RateLimitDecision{Allowed: true, Remaining: 4, Limit: 5}}
}

func newScanService(limiter *scanMockLimiter, tokens *scanMockTokens, mail *scanMockMail) *ScanService {
	svc := NewScanService(limiter, tokens, mail, scanMockClassifier{}, DefaultScanConfig(), zerolog.Nop())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("event-%d", n)
	}
	return svc
}

func scanMessage(id, subject string, received time.Time) domain.EmailMessage {
	return domain.EmailMessage{
		ID:         id,
		Subject:    subject,
		Sender:     "Acme <jobs@acme.com>",
		Snippet:    "snippet",
		ReceivedAt: received,
	}
}

func TestScan_RateLimited(t *testing.T) {
	limiter := &scanMockLimiter{decision: domain.RateLimitDecision{
		Allowed: false,
		ResetIn: 30 * time.Second,
		Limit:   5,
	}}
	svc := newScanService(limiter, &scanMockTokens{token: "tok"}, &scanMockMail{})

	_, err := svc.Scan(context.Background(), domain.ScanRequest{UserID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 30*time.Second, rle.Decision.ResetIn)
}

func TestScan_NotConnected(t *testing.T) {
	tokens := &scanMockTokens{err: domain.ErrNotConnected}
	svc := newScanService(allowAll(), tokens, &scanMockMail{})

	_, err := svc.Scan(context.Background(), domain.ScanRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestScan_ProviderError(t *testing.T) {
	mail := &scanMockMail{err: errors.New("network down")}
	svc := newScanService(allowAll(), &scanMockTokens{token: "tok"}, mail)

	_, err := svc.Scan(context.Background(), domain.ScanRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestScan_AuthFailureDuringFetch(t *testing.T) {
	// A stale-token fallback that then fails with an auth error is
	// surfaced as a reconnect prompt, not a generic provider failure.
	mail := &scanMockMail{err: domain.ErrNotConnected}
	svc := newScanService(allowAll(), &scanMockTokens{token: "stale"}, mail)

	_, err := svc.Scan(context.Background(), domain.ScanRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestScan_ClassifiesAndSkipsKnown(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mail := &scanMockMail{messages: []domain.EmailMessage{
		scanMessage("m1", "applied: thanks for applying", base),
		scanMessage("m2", "interview: schedule a call", base.Add(time.Hour)),
		scanMessage("m3", "newsletter of the week", base.Add(2*time.Hour)),
		scanMessage("m4", "rejection: not moving forward", base.Add(3*time.Hour)),
	}}
	svc := newScanService(allowAll(), &scanMockTokens{token: "tok"}, mail)

	result, err := svc.Scan(context.Background(), domain.ScanRequest{
		UserID:          "u1",
		LookbackDays:    7,
		KnownMessageIDs: map[string]struct{}{"m1": {}},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Scanned)
	assert.Equal(t, 1, result.AlreadyImported)
	require.Len(t, result.NewEvents, 2) // m2 and m4; m3 is not-a-job

	// Ordered by receipt time.
	assert.Equal(t, "m2", result.NewEvents[0].MessageID)
	assert.Equal(t, domain.CategoryInterview, result.NewEvents[0].Category)
	assert.Equal(t, "m4", result.NewEvents[1].MessageID)
	assert.Equal(t, domain.CategoryRejection, result.NewEvents[1].Category)

	assert.Equal(t, "u1", result.NewEvents[0].UserID)
	assert.Equal(t, "Acme", result.NewEvents[0].Company)
	assert.NotEmpty(t, result.NewEvents[0].ID)

	// The look-back window was honoured.
	wantSince := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
	assert.Equal(t, wantSince, mail.gotSince)
	assert.Equal(t, int64(50), mail.gotMax)
}

func TestScan_Idempotent(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mail := &scanMockMail{messages: []domain.EmailMessage{
		scanMessage("m1", "applied: thanks for applying", base),
		scanMessage("m2", "interview: schedule a call", base.Add(time.Hour)),
	}}
	svc := newScanService(allowAll(), &scanMockTokens{token: "tok"}, mail)

	known := map[string]struct{}{"m1": {}, "m2": {}}

	// All fetched IDs already imported: zero new events, every run.
	for range 3 {
		result, err := svc.Scan(context.Background(), domain.ScanRequest{
			UserID:          "u1",
			KnownMessageIDs: known,
		})
		require.NoError(t, err)
		assert.Empty(t, result.NewEvents)
		assert.Equal(t, 2, result.AlreadyImported)
	}
}

func TestScan_DefaultLookback(t *testing.T) {
	mail := &scanMockMail{}
	svc := newScanService(allowAll(), &scanMockTokens{token: "tok"}, mail)

	_, err := svc.Scan(context.Background(), domain.ScanRequest{UserID: "u1"})
	require.NoError(t, err)

	wantSince := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -30)
	assert.Equal(t, wantSince, mail.gotSince)
}

func TestScan_EmptyUserID(t *testing.T) {
	svc := newScanService(allowAll(), &scanMockTokens{token: "tok"}, &scanMockMail{})

	_, err := svc.Scan(context.Background(), domain.ScanRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
