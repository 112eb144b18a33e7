package driven

import "github.com/jobtrail-labs/jobtrail/internal/core/domain"

// Classifier assigns a category to a scanned email.
// Deterministic and total: implementations never fail on malformed
// input, they degrade to CategoryNotJob with low confidence. The
// current implementation is a heuristic scorer; a trained model can
// be substituted behind the same contract.
type Classifier interface {
	Classify(msg domain.EmailMessage) domain.Classification
}
