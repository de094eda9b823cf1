package model

import "time"

// Severity is the seriousness a rule assigns to its findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// FindingStatus is the outcome of evaluating one rule in one context.
//
// needs_review is used only when required fields are genuinely absent or a
// validator could not decide for lack of context; fail is reserved for
// violated explicit thresholds or missing mandatory documents.
type FindingStatus string

const (
	StatusPass        FindingStatus = "pass"
	StatusFail        FindingStatus = "fail"
	StatusNeedsReview FindingStatus = "needs_review"
)

// MaxFindingEvidence bounds the evidence payload attached to one finding.
const MaxFindingEvidence = 5

// Finding is the result of evaluating one rule against one context.
// Findings are append-only facts about one evaluation; never mutated after
// creation, only superseded by a later run's finding.
type Finding struct {
	RuleID        string        `json:"rule_id"`
	Severity      Severity      `json:"severity"`
	Status        FindingStatus `json:"status"`
	Message       string        `json:"message"`
	MissingFields []string      `json:"missing_fields,omitempty"`
	Evidence      []Evidence    `json:"evidence,omitempty"`
	CreatedAt     time.Time     `json:"created_at,omitempty"`
}

// AttachEvidence appends evidence entries, truncating snippets and keeping
// the payload within MaxFindingEvidence.
func (f *Finding) AttachEvidence(items ...Evidence) {
	for _, item := range items {
		if len(f.Evidence) >= MaxFindingEvidence {
			return
		}
		f.Evidence = append(f.Evidence, item.Truncate())
	}
}

// Escalates reports whether this finding qualifies the run for escalation:
// error severity with a fail or needs_review status.
func (f *Finding) Escalates() bool {
	return f.Severity == SeverityError &&
		(f.Status == StatusFail || f.Status == StatusNeedsReview)
}

// ValidationSummary is the machine-checkable contract handed to downstream
// consumers: a count by status plus the OR-accumulated escalation flag.
type ValidationSummary struct {
	RuleCount   int  `json:"rule_count"`
	Pass        int  `json:"pass"`
	NeedsReview int  `json:"needs_review"`
	Fail        int  `json:"fail"`
	NeedsLLM    bool `json:"needs_llm"`
}

// Add records one finding's status in the summary counts and accumulates
// the escalation flag.
func (s *ValidationSummary) Add(f *Finding) {
	s.RuleCount++
	switch f.Status {
	case StatusPass:
		s.Pass++
	case StatusNeedsReview:
		s.NeedsReview++
	case StatusFail:
		s.Fail++
	}
	if f.Escalates() {
		s.NeedsLLM = true
	}
}
