package model

import "time"

// ChangeKind identifies the entity class an atomic change touches.
type ChangeKind string

const (
	ChangeField         ChangeKind = "field_delta"
	ChangeDocument      ChangeKind = "document_delta"
	ChangeSpatialMetric ChangeKind = "spatial_metric_delta"
)

// ChangeItem describes one atomic difference between a submission and its
// parent: a field value, a document-type set membership, or a spatial
// metric value. Weight is the per-item significance in [0,1].
type ChangeItem struct {
	ID       string     `json:"id,omitempty"`
	Kind     ChangeKind `json:"kind"`
	Entity   string     `json:"entity"`
	OldValue any        `json:"old_value,omitempty"`
	NewValue any        `json:"new_value,omitempty"`
	Weight   float64    `json:"weight"`
}

// ChangeSet is the computed delta between a modification submission and its
// parent. Created once after the child's fields, documents and metrics are
// extracted; read thereafter by the delta engine; never mutated.
type ChangeSet struct {
	ID           string       `json:"id"`
	SubmissionID string       `json:"submission_id"`
	ParentID     string       `json:"parent_id"`
	Items        []ChangeItem `json:"items"`
	CreatedAt    time.Time    `json:"created_at"`
}
