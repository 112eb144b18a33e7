package gmail

import (
	"fmt"
	"mime"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// defaultQuery narrows the scan to likely job-related mail before
// classification. The classifier still makes the final call; this
// just keeps page sizes useful.
const defaultQuery = `(subject:application OR subject:interview OR subject:applying OR "your application" OR "thank you for applying" OR recruiter)`

// buildQuery combines the date bound with the job-related search
// terms. Gmail's after: operator takes a date, not a time; the day is
// truncated downwards so the window never misses messages.
func buildQuery(since time.Time, extra string) string {
	q := fmt.Sprintf("after:%s", since.Format("2006/01/02"))
	if extra == "" {
		extra = defaultQuery
	}
	return q + " " + extra
}

// messageFromAPI converts a Gmail metadata response to a domain
// message. Missing headers degrade to empty fields, never an error.
func messageFromAPI(msg *gmailapi.Message) domain.EmailMessage {
	out := domain.EmailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}

	if msg.InternalDate > 0 {
		out.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				out.Subject = decodeHeader(h.Value)
			case "from":
				out.Sender = decodeHeader(h.Value)
			}
		}
	}

	return out
}

// decodeHeader decodes RFC 2047 encoded-words; non-ASCII subjects
// arrive as `=?UTF-8?B?...?=`. Falls back to the raw value on error.
func decodeHeader(v string) string {
	if !strings.Contains(v, "=?") {
		return v
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}
