package rules

// Category is the closed set of rule categories the dispatcher knows.
// field_required is the generic default; the other nine dispatch to
// specialized validators.
type Category string

const (
	CategoryFieldRequired      Category = "field_required"
	CategoryDocumentRequired   Category = "document_required"
	CategoryConsistency        Category = "consistency"
	CategoryModification       Category = "modification"
	CategorySpatial            Category = "spatial"
	CategoryFee                Category = "fee"
	CategoryOwnership          Category = "ownership"
	CategoryPriorApproval      Category = "prior_approval"
	CategoryConstraint         Category = "constraint"
	CategoryBiodiversityOffset Category = "biodiversity_offset"
	CategoryPlanQuality        Category = "plan_quality"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryFieldRequired,
	CategoryDocumentRequired,
	CategoryConsistency,
	CategoryModification,
	CategorySpatial,
	CategoryFee,
	CategoryOwnership,
	CategoryPriorApproval,
	CategoryConstraint,
	CategoryBiodiversityOffset,
	CategoryPlanQuality,
}

// Valid reports whether c is a known category. The empty string is valid
// and treated as the field_required default.
func (c Category) Valid() bool {
	if c == "" {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// OrDefault maps the empty category to field_required.
func (c Category) OrDefault() Category {
	if c == "" {
		return CategoryFieldRequired
	}
	return c
}

// NeedsSubmission reports whether validators for this category require a
// submission id and a persistence handle. Rules in these categories are
// skipped as inapplicable when running in ad-hoc single-document mode.
func (c Category) NeedsSubmission() bool {
	switch c {
	case CategoryDocumentRequired, CategoryConsistency, CategoryModification, CategorySpatial:
		return true
	}
	return false
}
