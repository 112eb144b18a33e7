package heuristic

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// companyNoise are display-name suffixes that are not part of the
// company name.
var companyNoise = []string{
	"careers", "recruiting", "recruitment", "talent", "talent acquisition",
	"hiring team", "team", "hr", "jobs", "no-reply", "noreply",
}

// genericDomains are mail hosts that never identify an employer.
var genericDomains = map[string]bool{
	"gmail": true, "googlemail": true, "yahoo": true, "outlook": true,
	"hotmail": true, "icloud": true, "proton": true, "protonmail": true,
}

// rolePatterns pull a role title out of common subject shapes. First
// match wins.
var rolePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:your )?application for (?:the )?(.+?)(?: position| role| opening| at .+)?$`),
	regexp.MustCompile(`(?i)interview (?:invitation )?for (?:the )?(.+?)(?: position| role| opening| at .+)?$`),
	regexp.MustCompile(`(?i)(?:applying|applied) (?:to|for) (?:the )?(.+?)(?: position| role| opening)$`),
}

// subjectPrefixes are boilerplate prefixes stripped before role
// extraction.
var subjectPrefixes = []string{"re:", "fwd:", "fw:", "aw:"}

// extract pulls lightweight fields out of a job-related message:
// company from the sender's display name or domain, role from the
// subject, date from the receipt time. Best effort; missing pieces
// stay empty.
func extract(msg domain.EmailMessage) *domain.Extracted {
	return &domain.Extracted{
		Company: extractCompany(msg.Sender),
		Role:    extractRole(msg.Subject),
		Date:    msg.ReceivedAt,
	}
}

// extractCompany derives a company name from the From header.
func extractCompany(sender string) string {
	if sender == "" {
		return ""
	}

	addr, err := mail.ParseAddress(sender)
	if err != nil {
		// Raw address without angle brackets, or junk.
		addr = &mail.Address{Address: strings.TrimSpace(sender)}
	}

	if name := cleanDisplayName(addr.Name); name != "" {
		return name
	}

	return companyFromDomain(addr.Address)
}

// cleanDisplayName strips recruiting boilerplate from a display name.
// "Acme Corp Careers" -> "Acme Corp"; a name that is all boilerplate
// yields nothing.
func cleanDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	lower := strings.ToLower(name)
	for _, noise := range companyNoise {
		if strings.HasSuffix(lower, " "+noise) {
			name = strings.TrimSpace(name[:len(name)-len(noise)-1])
			lower = strings.ToLower(name)
		}
	}

	for _, noise := range companyNoise {
		if lower == noise {
			return ""
		}
	}
	return name
}

// companyFromDomain derives a name from the sender's mail domain.
// "jobs@greenhouse.acme.io" -> "Acme". Generic consumer domains yield
// nothing.
func companyFromDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}

	labels := strings.Split(strings.ToLower(address[at+1:]), ".")
	if len(labels) < 2 {
		return ""
	}

	// The registrable label sits just before the TLD.
	label := labels[len(labels)-2]
	if label == "" || genericDomains[label] {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// extractRole derives a role title from the subject line.
func extractRole(subject string) string {
	subject = strings.TrimSpace(subject)

	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(subject)
		for _, prefix := range subjectPrefixes {
			if strings.HasPrefix(lower, prefix) {
				subject = strings.TrimSpace(subject[len(prefix):])
				changed = true
				break
			}
		}
	}

	for _, re := range rolePatterns {
		if m := re.FindStringSubmatch(subject); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
