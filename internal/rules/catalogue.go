package rules

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// Catalogue is an indexed, immutable collection of rules. Built once per
// run before the worker pool starts; read-only shared state thereafter.
type Catalogue struct {
	Rules []Rule

	byID       map[string]*Rule
	byCategory map[Category][]*Rule
	byField    map[string][]*Rule
	byDocType  map[string][]*Rule
}

// NewCatalogue validates the rule set and builds the lookup indexes.
// An empty rule set is an error: a validation run with zero rules is
// meaningless and must not proceed.
func NewCatalogue(list []Rule) (*Catalogue, error) {
	if len(list) == 0 {
		return nil, eris.New("rules: catalogue is empty")
	}

	c := &Catalogue{
		Rules:      list,
		byID:       make(map[string]*Rule, len(list)),
		byCategory: make(map[Category][]*Rule),
		byField:    make(map[string][]*Rule),
		byDocType:  make(map[string][]*Rule),
	}

	for i := range c.Rules {
		r := &c.Rules[i]
		if r.ID == "" {
			return nil, eris.Errorf("rules: rule at index %d has no rule_id", i)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, eris.Errorf("rules: duplicate rule_id %q", r.ID)
		}
		if !r.Category.Valid() {
			return nil, eris.Errorf("rules: %s: unknown category %q", r.ID, r.Category)
		}
		switch r.Severity {
		case model.SeverityError, model.SeverityWarning:
		case "":
			r.Severity = model.SeverityError
		default:
			return nil, eris.Errorf("rules: %s: unknown severity %q", r.ID, r.Severity)
		}
		if err := validateConfig(r); err != nil {
			return nil, err
		}

		r.Category = r.Category.OrDefault()
		c.byID[r.ID] = r
		c.byCategory[r.Category] = append(c.byCategory[r.Category], r)
		for _, f := range r.RequiredFields {
			c.byField[f] = append(c.byField[f], r)
		}
		for _, f := range configFields(r) {
			c.byField[f] = append(c.byField[f], r)
		}
		for _, t := range r.DocumentTypes() {
			c.byDocType[t] = append(c.byDocType[t], r)
		}
	}

	return c, nil
}

// Len returns the number of rules in the catalogue.
func (c *Catalogue) Len() int { return len(c.Rules) }

// ByID returns the rule with the given id, or nil.
func (c *Catalogue) ByID(id string) *Rule { return c.byID[id] }

// ByCategory returns the rules in the given category.
func (c *Catalogue) ByCategory(cat Category) []*Rule { return c.byCategory[cat] }

// ForField returns every rule whose required or configured fields reference
// the given field name.
func (c *Catalogue) ForField(name string) []*Rule { return c.byField[name] }

// ForDocType returns every document_required rule that can require the
// given document type.
func (c *Catalogue) ForDocType(docType string) []*Rule { return c.byDocType[docType] }

// ForMetric returns every spatial rule whose metric substrings match the
// given metric name.
func (c *Catalogue) ForMetric(name string) []*Rule {
	var out []*Rule
	lower := strings.ToLower(name)
	for _, r := range c.byCategory[CategorySpatial] {
		setback, height, area := r.Config.Spatial.MetricSubstrings()
		// Configured substrings may carry mixed case; the spatial
		// validator folds both sides, so delta targeting must too.
		if strings.Contains(lower, strings.ToLower(setback)) ||
			strings.Contains(lower, strings.ToLower(height)) ||
			strings.Contains(lower, strings.ToLower(area)) {
			out = append(out, r)
		}
	}
	return out
}

// configFields lists the field names a rule's typed config reads, beyond
// required_fields. These feed the field index used for delta targeting.
func configFields(r *Rule) []string {
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if n != "" {
				out = append(out, n)
			}
		}
	}
	if c := r.Config.Fee; c != nil {
		add(c.FeeField)
	}
	if c := r.Config.Ownership; c != nil {
		add(c.CertificateField, c.NoticeDateField)
	}
	if c := r.Config.PriorApproval; c != nil {
		add(c.TriggerFields...)
		add(c.DeterminationFields...)
	}
	if c := r.Config.Constraint; c != nil {
		add(c.FlagField, c.EvidenceField)
	}
	if c := r.Config.Offset; c != nil {
		add(c.TriggerField, c.BaselineField, c.ProposedField)
	}
	if c := r.Config.PlanQuality; c != nil {
		add(c.ScaleField, c.NorthArrowField, c.PaperSizeField)
	}
	return out
}
