package model

import "time"

// SubmissionStatus represents the processing state of a submission.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Metadata keys used by the validation run and the escalation gate.
// The metadata bag is the submission-scoped persistence point for the
// resolved-field cache and the escalation call counter.
const (
	MetaResolvedFields = "resolved_fields"
	MetaLLMCallCount   = "llm_call_count"
)

// Submission is one version of an application's material. Version 0 is the
// original; later versions are modifications carrying a parent reference,
// forming a strict tree rooted at V0. Submissions are never deleted, only
// superseded by child versions.
type Submission struct {
	ID             string           `json:"id"`
	ApplicationRef string           `json:"application_ref"`
	Version        int              `json:"version"`
	ParentID       string           `json:"parent_id,omitempty"`
	Status         SubmissionStatus `json:"status"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsOriginal reports whether this is the V0 submission.
func (s *Submission) IsOriginal() bool {
	return s.Version == 0
}

// ResolvedFields returns the resolved-field cache entry from the metadata
// bag, or nil if none has been stored.
func (s *Submission) ResolvedFields() map[string]any {
	raw, ok := s.Metadata[MetaResolvedFields]
	if !ok {
		return nil
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return fields
}

// LLMCallCount returns the escalation call counter from the metadata bag.
func (s *Submission) LLMCallCount() int {
	raw, ok := s.Metadata[MetaLLMCallCount]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
