package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

// Context is the uniform context bag handed to every category validator.
// Store may be nil in ad-hoc single-document mode; rules whose category
// needs submission context are then skipped as inapplicable.
type Context struct {
	DocumentID      string `json:"document_id"`
	DocumentType    string `json:"document_type"`
	SubmissionID    string `json:"submission_id,omitempty"`
	ApplicationRef  string `json:"application_ref,omitempty"`
	ApplicationType string `json:"application_type,omitempty"`

	Extraction *model.ExtractionResult `json:"-"`
	Store      store.Store             `json:"-"`
}

// HasSubmission reports whether submission-scoped validators can run.
func (c *Context) HasSubmission() bool {
	return c.Store != nil && c.SubmissionID != ""
}

// fieldValue is one extracted value for a field, tagged with the document
// it came from. Used by the consistency validator.
type fieldValue struct {
	DocumentID string
	Filename   string
	Value      any
}

// submissionFields loads every extracted field for the submission, grouped
// by field name.
func submissionFields(ctx context.Context, vctx *Context) (map[string][]fieldValue, error) {
	fields, err := vctx.Store.ListExtractedFields(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, err
	}
	docs, err := vctx.Store.ListDocuments(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Filename
	}

	grouped := make(map[string][]fieldValue)
	for _, f := range fields {
		grouped[f.Name] = append(grouped[f.Name], fieldValue{
			DocumentID: f.DocumentID,
			Filename:   names[f.DocumentID],
			Value:      f.Value,
		})
	}
	return grouped, nil
}

// stringField returns the named extraction field as a trimmed string.
func stringField(extraction *model.ExtractionResult, name string) string {
	if extraction == nil || extraction.Fields == nil {
		return ""
	}
	return asString(extraction.Fields[name])
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// boolField interprets common affirmative spellings of a flag field.
func boolField(extraction *model.ExtractionResult, name string) bool {
	switch strings.ToLower(stringField(extraction, name)) {
	case "true", "yes", "y", "1", "checked":
		return true
	}
	if extraction != nil {
		if b, ok := extraction.Fields[name].(bool); ok {
			return b
		}
	}
	return false
}
