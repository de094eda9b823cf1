package model

import "time"

// RunStatus represents the current state of a validation run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusValidating RunStatus = "validating"
	RunStatusEscalating RunStatus = "escalating"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run represents a single validation run over one document.
type Run struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"document_id"`
	SubmissionID string     `json:"submission_id,omitempty"`
	Status       RunStatus  `json:"status"`
	Result       *RunResult `json:"result,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Summary       ValidationSummary `json:"summary"`
	Escalated     bool              `json:"escalated"`
	EscalationUSD float64           `json:"escalation_usd,omitempty"`
	DurationMS    int64             `json:"duration_ms"`
	Error         string            `json:"error,omitempty"`
}
