package rules

import (
	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// EvidenceExpectation describes where a rule expects supporting evidence to
// come from and how confident the extractor must be in it.
type EvidenceExpectation struct {
	SourceTypes   []string `yaml:"source_types" json:"source_types"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	MinConfidence float64  `yaml:"min_confidence" json:"min_confidence"`
}

// Rule is one compliance rule from the catalogue. Immutable once loaded;
// identified by an ID unique within a catalogue.
type Rule struct {
	ID                string              `yaml:"rule_id" json:"rule_id"`
	Title             string              `yaml:"title" json:"title"`
	Description       string              `yaml:"description" json:"description"`
	Category          Category            `yaml:"rule_category" json:"rule_category"`
	RequiredFields    []string            `yaml:"required_fields" json:"required_fields"`
	RequiredFieldsAny bool                `yaml:"required_fields_any" json:"required_fields_any"`
	Severity          model.Severity      `yaml:"severity" json:"severity"`
	AppliesTo         []string            `yaml:"applies_to" json:"applies_to"`
	Tags              []string            `yaml:"tags" json:"tags"`
	Evidence          EvidenceExpectation `yaml:"evidence" json:"evidence"`
	Config            Config              `yaml:"config" json:"config"`
}

// AppliesToDoc reports whether the rule applies to the given classified
// document type. An empty applies_to list means unrestricted.
func (r *Rule) AppliesToDoc(docType string) bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	for _, t := range r.AppliesTo {
		if t == docType {
			return true
		}
	}
	return false
}

// DocumentTypes returns every document type this rule can require, across
// the flat list, the per-application-type map and required_fields for
// document_required rules. Used by the catalogue document-type index.
func (r *Rule) DocumentTypes() []string {
	if r.Category != CategoryDocumentRequired {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(types []string) {
		for _, t := range types {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	if c := r.Config.Document; c != nil {
		add(c.RequiredTypes)
		for _, types := range c.ByApplicationType {
			add(types)
		}
	}
	// document_required rules may carry the type set directly in
	// required_fields instead of config.
	add(r.RequiredFields)
	return out
}
