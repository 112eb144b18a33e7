// Package heuristic implements the classifier port with a weighted
// keyword scorer. It is deliberately a replaceable strategy: a trained
// model can be substituted behind the same port without changing
// callers.
package heuristic

import (
	"strings"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

const (
	// subjectWeight boosts phrase hits in the subject over the snippet.
	subjectWeight = 2.0
	snippetWeight = 1.0

	// minScore is the threshold a category must clear; anything below
	// classifies as not-a-job.
	minScore = 3.0

	// confidenceSmoothing keeps confidence bounded below 1 and strictly
	// increasing in the winning score.
	confidenceSmoothing = 2.0
)

// rule is one weighted phrase for a category.
type rule struct {
	phrase string
	weight float64
}

// scoredCategories fixes the evaluation order so ties break
// deterministically.
var scoredCategories = []domain.Category{
	domain.CategoryApplied,
	domain.CategoryInterview,
	domain.CategoryRejection,
}

var rules = map[domain.Category][]rule{
	domain.CategoryApplied: {
		{"thank you for applying", 4},
		{"thanks for applying", 4},
		{"we received your application", 4},
		{"application received", 4},
		{"received your application", 3},
		{"application has been submitted", 3},
		{"successfully submitted", 3},
		{"your application", 2},
		{"applying to", 2},
		{"application to", 2},
	},
	domain.CategoryInterview: {
		{"schedule an interview", 5},
		{"interview invitation", 5},
		{"phone screen", 4},
		{"interview", 4},
		{"schedule a call", 3},
		{"schedule some time", 3},
		{"technical screen", 3},
		{"next round", 3},
		{"meet the team", 2},
		{"your availability", 2},
	},
	domain.CategoryRejection: {
		{"not moving forward", 4},
		{"decided to move forward with other candidates", 4},
		{"unfortunately", 4},
		{"position has been filled", 3},
		{"not been selected", 3},
		{"will not be proceeding", 3},
		{"other candidates", 3},
		{"future opportunities", 2},
		{"wish you the best", 2},
	},
}

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// Classifier scores messages against per-category keyword rules.
// Deterministic and total; the zero value is ready to use.
type Classifier struct{}

// New creates a heuristic classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify assigns a category and confidence to a message.
//
// Each phrase contributes its weight once per field it appears in,
// with subject hits weighted above snippet hits. The category with
// the highest score wins if it clears the minimum threshold;
// otherwise the message is not-a-job. Confidence is the winning score
// normalised against all category scores, so stronger matches always
// yield equal or higher confidence.
func (c *Classifier) Classify(msg domain.EmailMessage) domain.Classification {
	subject := strings.ToLower(msg.Subject)
	snippet := strings.ToLower(msg.Snippet)

	var total float64
	scores := make(map[domain.Category]float64, len(scoredCategories))
	for _, cat := range scoredCategories {
		var score float64
		for _, r := range rules[cat] {
			if strings.Contains(subject, r.phrase) {
				score += r.weight * subjectWeight
			}
			if strings.Contains(snippet, r.phrase) {
				score += r.weight * snippetWeight
			}
		}
		scores[cat] = score
		total += score
	}

	winner := domain.CategoryNotJob
	var winning float64
	for _, cat := range scoredCategories {
		if scores[cat] > winning {
			winner = cat
			winning = scores[cat]
		}
	}

	if winner == domain.CategoryNotJob || winning < minScore {
		return domain.Classification{Category: domain.CategoryNotJob}
	}

	return domain.Classification{
		Category:   winner,
		Confidence: winning / (total + confidenceSmoothing),
		Extracted:  extract(msg),
	}
}
