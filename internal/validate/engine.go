package validate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// ValidatorFunc evaluates a single rule against a document. A nil finding
// with a nil error means the rule did not apply; no check is recorded.
type ValidatorFunc func(ctx context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error)

// Engine dispatches rules to category validators. The dispatch table is
// fixed at construction; rules carrying a category with no validator are
// skipped, never fatal.
type Engine struct {
	validators map[rules.Category]ValidatorFunc
}

func NewEngine() *Engine {
	return &Engine{validators: map[rules.Category]ValidatorFunc{
		rules.CategoryFieldRequired:      validateFieldRequired,
		rules.CategoryDocumentRequired:   validateDocumentRequired,
		rules.CategoryConsistency:        validateConsistency,
		rules.CategoryModification:       validateModification,
		rules.CategorySpatial:            validateSpatial,
		rules.CategoryFee:                validateFee,
		rules.CategoryOwnership:          validateOwnership,
		rules.CategoryPriorApproval:      validatePriorApproval,
		rules.CategoryConstraint:         validateConstraint,
		rules.CategoryBiodiversityOffset: validateOffset,
		rules.CategoryPlanQuality:        validatePlanQuality,
	}}
}

// Report is the outcome of one validation pass over a document.
type Report struct {
	Summary  model.ValidationSummary `json:"summary"`
	Findings []model.Finding         `json:"findings"`
	Context  *Context                `json:"context"`
}

// Evaluate runs every applicable rule from the list against the document
// in vctx. The summary's needs_llm flag accumulates across findings and is
// never reset by a later passing rule.
func (e *Engine) Evaluate(ctx context.Context, list []rules.Rule, vctx *Context) (*Report, error) {
	if vctx == nil || vctx.Extraction == nil {
		return nil, eris.New("validate: nil context or extraction")
	}

	report := &Report{Context: vctx}
	for i := range list {
		r := &list[i]
		if !r.AppliesToDoc(vctx.DocumentType) {
			continue
		}
		cat := r.Category.OrDefault()
		fn, ok := e.validators[cat]
		if !ok {
			zap.L().Warn("skipping rule with unknown category",
				zap.String("rule_id", r.ID),
				zap.String("category", string(r.Category)))
			continue
		}
		if cat.NeedsSubmission() && !vctx.HasSubmission() {
			zap.L().Debug("skipping submission-scoped rule without submission context",
				zap.String("rule_id", r.ID),
				zap.String("category", string(cat)))
			continue
		}

		finding, err := fn(ctx, r, vctx)
		if err != nil {
			zap.L().Warn("validator error, rule skipped",
				zap.String("rule_id", r.ID),
				zap.String("document_id", vctx.DocumentID),
				zap.Error(err))
			continue
		}
		if finding == nil {
			continue
		}
		finding.RuleID = r.ID
		report.Findings = append(report.Findings, *finding)
		report.Summary.Add(finding)
	}
	return report, nil
}

// MissingFields collects the union of missing fields across escalatable
// findings, preserving first-seen order.
func (r *Report) MissingFields() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range r.Findings {
		if !f.Escalates() {
			continue
		}
		for _, name := range f.MissingFields {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
