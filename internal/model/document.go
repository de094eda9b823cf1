package model

import "time"

// Document is one submitted file within a submission, classified by type
// (e.g. "application_form", "site_plan", "design_statement").
type Document struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Filename     string    `json:"filename"`
	DocType      string    `json:"doc_type"`
	Pages        int       `json:"pages,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExtractedField is one named field value pulled out of a document by the
// upstream field-mapping layer.
type ExtractedField struct {
	ID         string  `json:"id,omitempty"`
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}
