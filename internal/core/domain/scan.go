package domain

import "time"

// RateLimitAction names a rate-limited operation.
const (
	// ActionGmailScan is the mailbox scan endpoint.
	ActionGmailScan = "gmail-scan"
	// ActionDefault is the fallback configuration for unknown actions.
	ActionDefault = "default"
)

// ActionLimit configures a sliding window for one action.
type ActionLimit struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the trailing interval the limit applies to.
	Window time.Duration
}

// RateLimitDecision is the outcome of a rate-limit check.
type RateLimitDecision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is the number of requests left in the current window.
	Remaining int
	// ResetIn is how long until the oldest charged request leaves the
	// window. Zero when Allowed and the window is not full.
	ResetIn time.Duration
	// Limit echoes the configured maximum for the action.
	Limit int
}

// ScanRequest asks for one bounded fetch-and-classify pass over a
// user's recent mail.
type ScanRequest struct {
	// UserID identifies the caller.
	UserID string
	// LookbackDays bounds how far back to fetch. Zero means the
	// configured default.
	LookbackDays int
	// KnownMessageIDs are message IDs already imported; matching
	// messages are skipped so repeated scans stay idempotent.
	KnownMessageIDs map[string]struct{}
}

// JobEvent is a newly detected job-related email, ready for the
// caller to persist.
type JobEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MessageID  string    `json:"message_id"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Company    string    `json:"company,omitempty"`
	Role       string    `json:"role,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScanResult summarises one scan pass.
type ScanResult struct {
	// Scanned is the number of candidate messages fetched.
	Scanned int `json:"scanned"`
	// NewEvents are job-related messages not previously imported,
	// ordered by receipt time.
	NewEvents []JobEvent `json:"new_events"`
	// AlreadyImported counts candidates skipped as duplicates.
	AlreadyImported int `json:"already_imported"`
	// From and To give the effective time range used.
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
