package rules

import (
	"github.com/rotisserie/eris"
)

// Per-category typed configuration. The catalogue source carries an open
// config map per rule; the loader decodes it into the matching struct here
// and rejects malformed catalogues at load time rather than per-rule at
// evaluation time.

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v falls inside the range. A zero Max means
// unbounded above.
func (r Range) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	if r.Max > 0 && v > r.Max {
		return false
	}
	return true
}

// DocumentConfig configures a document_required rule. Required document
// types come either from the flat list or, when ByApplicationType is set,
// from the entry matching the current application type (falling back to
// the "default" key).
type DocumentConfig struct {
	RequiredTypes     []string            `yaml:"required_types" json:"required_types"`
	ByApplicationType map[string][]string `yaml:"application_type_required_fields" json:"application_type_required_fields"`
}

// TypesFor resolves the expected document-type set for an application
// type. The second return is false when the rule is inapplicable: no flat
// list, and neither the application type nor "default" matches.
func (c *DocumentConfig) TypesFor(appType string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	if len(c.ByApplicationType) > 0 {
		if types, ok := c.ByApplicationType[appType]; ok {
			return types, true
		}
		if types, ok := c.ByApplicationType["default"]; ok {
			return types, true
		}
		return nil, false
	}
	if len(c.RequiredTypes) > 0 {
		return c.RequiredTypes, true
	}
	return nil, false
}

// SpatialConfig configures threshold checks over derived spatial metrics.
// Metrics are matched by substring on the metric name. Nil thresholds are
// not evaluated.
type SpatialConfig struct {
	MinSetbackM *float64 `yaml:"min_setback_m" json:"min_setback_m"`
	MaxHeightM  *float64 `yaml:"max_height_m" json:"max_height_m"`
	MinAreaM2   *float64 `yaml:"min_area_m2" json:"min_area_m2"`
	MaxAreaM2   *float64 `yaml:"max_area_m2" json:"max_area_m2"`

	// Substring overrides for metric name matching.
	SetbackMetric string `yaml:"setback_metric" json:"setback_metric"`
	HeightMetric  string `yaml:"height_metric" json:"height_metric"`
	AreaMetric    string `yaml:"area_metric" json:"area_metric"`
}

// MetricSubstrings returns the metric-name substrings this rule reads,
// after defaulting.
func (c *SpatialConfig) MetricSubstrings() (setback, height, area string) {
	setback, height, area = "setback", "height", "area"
	if c == nil {
		return
	}
	if c.SetbackMetric != "" {
		setback = c.SetbackMetric
	}
	if c.HeightMetric != "" {
		height = c.HeightMetric
	}
	if c.AreaMetric != "" {
		area = c.AreaMetric
	}
	return
}

// FeeConfig configures acceptable fee ranges. The range varies by declared
// application type; Default applies when no per-type entry matches.
// ExemptTypes lists application types for which the rule does not apply.
type FeeConfig struct {
	FeeField          string           `yaml:"fee_field" json:"fee_field"`
	Default           *Range           `yaml:"default" json:"default"`
	ByApplicationType map[string]Range `yaml:"by_application_type" json:"by_application_type"`
	ExemptTypes       []string         `yaml:"exempt_types" json:"exempt_types"`
}

// RangeFor resolves the acceptable fee range for an application type. The
// second return is false when no range is configured for that type.
func (c *FeeConfig) RangeFor(appType string) (Range, bool) {
	if c == nil {
		return Range{}, false
	}
	if r, ok := c.ByApplicationType[appType]; ok {
		return r, true
	}
	if c.Default != nil {
		return *c.Default, true
	}
	return Range{}, false
}

// OwnershipConfig configures the ownership-certificate decision tree.
type OwnershipConfig struct {
	CertificateField  string   `yaml:"certificate_field" json:"certificate_field"`
	NoticeDateField   string   `yaml:"notice_date_field" json:"notice_date_field"`
	ValidCertificates []string `yaml:"valid_certificates" json:"valid_certificates"`
	// Certificates that require a notice to have been served on other owners.
	NoticeCertificates []string `yaml:"notice_certificates" json:"notice_certificates"`
}

// PriorApprovalConfig configures prior-approval trigger checks: when any
// trigger field is affirmative, the named determination fields must be
// present.
type PriorApprovalConfig struct {
	TriggerFields       []string `yaml:"trigger_fields" json:"trigger_fields"`
	DeterminationFields []string `yaml:"determination_fields" json:"determination_fields"`
}

// ConstraintConfig configures a constraint-flag rule: a set flag needs
// supporting evidence text, otherwise the finding degrades to needs_review.
type ConstraintConfig struct {
	FlagField        string   `yaml:"flag_field" json:"flag_field"`
	EvidenceField    string   `yaml:"evidence_field" json:"evidence_field"`
	EvidenceKeywords []string `yaml:"evidence_keywords" json:"evidence_keywords"`
}

// OffsetConfig configures the biodiversity net-gain check.
type OffsetConfig struct {
	TriggerField    string  `yaml:"trigger_field" json:"trigger_field"`
	BaselineField   string  `yaml:"baseline_field" json:"baseline_field"`
	ProposedField   string  `yaml:"proposed_field" json:"proposed_field"`
	RequiredGainPct float64 `yaml:"required_gain_pct" json:"required_gain_pct"`
}

// PlanQualityConfig configures drawing-quality checks.
type PlanQualityConfig struct {
	ScaleField       string   `yaml:"scale_field" json:"scale_field"`
	AcceptableScales []string `yaml:"acceptable_scales" json:"acceptable_scales"`
	NorthArrowField  string   `yaml:"north_arrow_field" json:"north_arrow_field"`
	PaperSizeField   string   `yaml:"paper_size_field" json:"paper_size_field"`
	PaperSizes       []string `yaml:"paper_sizes" json:"paper_sizes"`
}

// Config is the per-rule typed configuration; exactly the member matching
// the rule's category is populated at load time.
type Config struct {
	Document      *DocumentConfig      `yaml:"document,omitempty" json:"document,omitempty"`
	Spatial       *SpatialConfig       `yaml:"spatial,omitempty" json:"spatial,omitempty"`
	Fee           *FeeConfig           `yaml:"fee,omitempty" json:"fee,omitempty"`
	Ownership     *OwnershipConfig     `yaml:"ownership,omitempty" json:"ownership,omitempty"`
	PriorApproval *PriorApprovalConfig `yaml:"prior_approval,omitempty" json:"prior_approval,omitempty"`
	Constraint    *ConstraintConfig    `yaml:"constraint,omitempty" json:"constraint,omitempty"`
	Offset        *OffsetConfig        `yaml:"offset,omitempty" json:"offset,omitempty"`
	PlanQuality   *PlanQualityConfig   `yaml:"plan_quality,omitempty" json:"plan_quality,omitempty"`
}

// validateConfig checks that the typed config present on a rule matches
// its category and carries usable values.
func validateConfig(r *Rule) error {
	switch r.Category.OrDefault() {
	case CategorySpatial:
		if c := r.Config.Spatial; c != nil {
			if c.MinSetbackM == nil && c.MaxHeightM == nil && c.MinAreaM2 == nil && c.MaxAreaM2 == nil {
				return eris.Errorf("rules: %s: spatial config has no thresholds", r.ID)
			}
		}
	case CategoryFee:
		if c := r.Config.Fee; c != nil {
			for appType, rng := range c.ByApplicationType {
				if rng.Max > 0 && rng.Min > rng.Max {
					return eris.Errorf("rules: %s: fee range for %q has min > max", r.ID, appType)
				}
			}
			if c.Default != nil && c.Default.Max > 0 && c.Default.Min > c.Default.Max {
				return eris.Errorf("rules: %s: default fee range has min > max", r.ID)
			}
		}
	case CategoryBiodiversityOffset:
		if c := r.Config.Offset; c != nil {
			if c.RequiredGainPct < 0 {
				return eris.Errorf("rules: %s: required_gain_pct must be non-negative", r.ID)
			}
		}
	}
	return nil
}
