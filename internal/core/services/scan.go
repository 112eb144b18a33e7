package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driving"
)

// Ensure ScanService implements the interface.
var _ driving.ScanService = (*ScanService)(nil)

// ScanConfig bounds a scan pass.
type ScanConfig struct {
	// PageSize caps the number of messages fetched per invocation.
	// This, not wall-clock cancellation, bounds scan duration.
	PageSize int64
	// DefaultLookbackDays is used when the request does not specify a
	// look-back window.
	DefaultLookbackDays int
}

// DefaultScanConfig returns the default scan bounds.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		PageSize:            50,
		DefaultLookbackDays: 30,
	}
}

// ScanService coordinates one fetch-and-classify pass: rate-limit the
// caller, obtain a valid access token, fetch a bounded set of recent
// messages, classify each, and return newly detected job events while
// skipping already-imported ones.
type ScanService struct {
	limiter    driven.RateLimiter
	tokens     driving.TokenService
	mail       driven.MailProvider
	classifier driven.Classifier
	cfg        ScanConfig
	log        zerolog.Logger

	// now and newID are replaceable in tests.
	now   func() time.Time
	newID func() string
}

// NewScanService creates a scan orchestrator.
func NewScanService(
	limiter driven.RateLimiter,
	tokens driving.TokenService,
	mail driven.MailProvider,
	classifier driven.Classifier,
	cfg ScanConfig,
	log zerolog.Logger,
) *ScanService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultScanConfig().PageSize
	}
	if cfg.DefaultLookbackDays <= 0 {
		cfg.DefaultLookbackDays = DefaultScanConfig().DefaultLookbackDays
	}
	return &ScanService{
		limiter:    limiter,
		tokens:     tokens,
		mail:       mail,
		classifier: classifier,
		cfg:        cfg,
		log:        log.With().Str("component", "scan").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Scan runs one scan pass for the user.
//
// Re-running with the same KnownMessageIDs and no new mail returns
// zero new events regardless of how many times it is invoked.
func (s *ScanService) Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanResult, error) {
	if req.UserID == "" {
		return nil, domain.ErrInvalidInput
	}

	dec := s.limiter.Check(req.UserID, domain.ActionGmailScan)
	if !dec.Allowed {
		return nil, &domain.RateLimitError{Decision: dec}
	}

	token, err := s.tokens.AccessToken(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return nil, domain.ErrNotConnected
		}
		return nil, fmt.Errorf("acquire access token: %w", err)
	}

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = s.cfg.DefaultLookbackDays
	}
	to := s.now()
	from := to.AddDate(0, 0, -lookback)

	msgs, err := s.mail.ListMessages(ctx, token, from, s.cfg.PageSize)
	if err != nil {
		// An auth failure after a best-effort stale fallback means the
		// grant is gone for real: surface it as a reconnect prompt.
		if errors.Is(err, domain.ErrNotConnected) {
			return nil, domain.ErrNotConnected
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	result := &domain.ScanResult{From: from, To: to, Scanned: len(msgs)}

	for _, msg := range msgs {
		if _, known := req.KnownMessageIDs[msg.ID]; known {
			result.AlreadyImported++
			continue
		}

		c := s.classifier.Classify(msg)
		if !c.Category.IsJobRelated() {
			continue
		}

		event := domain.JobEvent{
			ID:         s.newID(),
			UserID:     req.UserID,
			MessageID:  msg.ID,
			Category:   c.Category,
			Confidence: c.Confidence,
			ReceivedAt: msg.ReceivedAt,
			CreatedAt:  to,
		}
		if c.Extracted != nil {
			event.Company = c.Extracted.Company
			event.Role = c.Extracted.Role
		}
		result.NewEvents = append(result.NewEvents, event)
	}

	// Stable with respect to receipt time; no other ordering promised.
	sort.SliceStable(result.NewEvents, func(i, j int) bool {
		return result.NewEvents[i].ReceivedAt.Before(result.NewEvents[j].ReceivedAt)
	})

	s.log.Debug().
		Str("user_id", req.UserID).
		Int("scanned", result.Scanned).
		Int("new_events", len(result.NewEvents)).
		Int("already_imported", result.AlreadyImported).
		Msg("scan complete")

	return result, nil
}
