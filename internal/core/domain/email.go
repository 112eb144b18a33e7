package domain

import "time"

// EmailMessage is the slice of a mail message the classifier sees.
// Content beyond subject, sender and snippet is never fetched.
type EmailMessage struct {
	// ID is the provider's message identifier.
	ID string `json:"id"`
	// ThreadID groups messages in the same conversation.
	ThreadID string `json:"thread_id,omitempty"`
	// Subject is the decoded subject header.
	Subject string `json:"subject"`
	// Sender is the raw From header, e.g. `Acme Corp <jobs@acme.com>`.
	Sender string `json:"sender"`
	// Snippet is the provider's short plain-text preview of the body.
	Snippet string `json:"snippet"`
	// ReceivedAt is when the provider received the message.
	ReceivedAt time.Time `json:"received_at"`
}

// Category is a classification label for a scanned email.
type Category string

// The closed set of classification categories.
const (
	CategoryApplied   Category = "applied"
	CategoryInterview Category = "interview"
	CategoryRejection Category = "rejection"
	CategoryNotJob    Category = "not-a-job"
)

// IsJobRelated returns true for categories that produce a job event.
func (c Category) IsJobRelated() bool {
	switch c {
	case CategoryApplied, CategoryInterview, CategoryRejection:
		return true
	default:
		return false
	}
}

// Extracted holds fields pulled out of a job-related message.
type Extracted struct {
	// Company is taken from the sender's display name or domain.
	Company string `json:"company,omitempty"`
	// Role is taken from the subject line with boilerplate stripped.
	Role string `json:"role,omitempty"`
	// Date is the message's receipt time.
	Date time.Time `json:"date,omitempty"`
}

// Classification is the result of classifying one message.
// Derived, never persisted by the core.
type Classification struct {
	// Category is the winning label, CategoryNotJob when no category
	// clears the minimum threshold.
	Category Category `json:"category"`
	// Confidence is the normalised winning score in [0, 1], monotonic
	// in the strength of keyword matches.
	Confidence float64 `json:"confidence"`
	// Extracted is set only when Category is job-related.
	Extracted *Extracted `json:"extracted,omitempty"`
}
