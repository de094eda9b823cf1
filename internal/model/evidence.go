package model

import (
	"encoding/json"
	"unicode/utf8"
)

// MaxSnippetLen bounds the stored length of an evidence snippet.
const MaxSnippetLen = 500

// BoundingBox locates a snippet on a page, in page coordinates.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Evidence is a page/snippet/confidence pointer grounding a finding or an
// extracted field value. Owned by the document it was extracted from and
// read-only to the validation core.
type Evidence struct {
	DocumentID string       `json:"document_id,omitempty"`
	Page       int          `json:"page"`
	Snippet    string       `json:"snippet"`
	BBox       *BoundingBox `json:"bbox,omitempty"`
	Confidence float64      `json:"confidence"`
	Source     string       `json:"source,omitempty"`
}

// Truncate returns a copy with the snippet bounded to MaxSnippetLen,
// cutting on a rune boundary so a multi-byte character is never split.
func (e Evidence) Truncate() Evidence {
	if len(e.Snippet) > MaxSnippetLen {
		cut := MaxSnippetLen
		for cut > 0 && !utf8.RuneStart(e.Snippet[cut]) {
			cut--
		}
		e.Snippet = e.Snippet[:cut]
	}
	return e
}

// EvidenceIndex maps an evidence key (usually a field name) to the evidence
// entries supporting it. Upstream producers emit either a single object or
// a list per key, so unmarshalling accepts both shapes.
type EvidenceIndex map[string][]Evidence

// UnmarshalJSON accepts both `{"k": {...}}` and `{"k": [{...}]}` forms.
func (idx *EvidenceIndex) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(EvidenceIndex, len(raw))
	for key, msg := range raw {
		var list []Evidence
		if err := json.Unmarshal(msg, &list); err == nil {
			out[key] = list
			continue
		}
		var single Evidence
		if err := json.Unmarshal(msg, &single); err != nil {
			return err
		}
		out[key] = []Evidence{single}
	}
	*idx = out
	return nil
}
