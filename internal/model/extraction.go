package model

// TextBlock is a raw text region returned by the layout extractor.
type TextBlock struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Table is a table region returned by the layout extractor.
type Table struct {
	Page int        `json:"page"`
	Rows [][]string `json:"rows"`
}

// PageAnchor ties a logical section to a page number.
type PageAnchor struct {
	Section string `json:"section"`
	Page    int    `json:"page"`
}

// ExtractionResult is the structured output of the upstream field-mapping
// collaborator for one document. The validation core reads only Fields and
// EvidenceIndex; the rest passes through for reporting.
type ExtractionResult struct {
	Fields        map[string]any `json:"fields"`
	EvidenceIndex EvidenceIndex  `json:"evidence_index"`
	TextBlocks    []TextBlock    `json:"text_blocks,omitempty"`
	Tables        []Table        `json:"tables,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	PageAnchors   []PageAnchor   `json:"page_anchors,omitempty"`
}

// FieldPresent reports whether the named field exists with a non-empty
// value. A scalar counts when non-empty after string conversion; a list
// counts when it has at least one element.
func (r *ExtractionResult) FieldPresent(name string) bool {
	if r == nil || r.Fields == nil {
		return false
	}
	return ValuePresent(r.Fields[name])
}

// ValuePresent reports whether a field value counts as present: non-nil,
// non-empty string, or non-empty slice/map.
func ValuePresent(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
