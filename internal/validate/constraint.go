package validate

import (
	"context"
	"fmt"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validateConstraint checks that a flagged site constraint (conservation
// area, listed building curtilage, flood zone) is backed by evidence: a
// populated evidence field or body text mentioning the configured
// keywords. A bare flag goes to review.
func validateConstraint(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.Constraint
	if cfg == nil || cfg.FlagField == "" {
		return nil, nil
	}
	if !boolField(vctx.Extraction, cfg.FlagField) {
		return nil, nil
	}

	if cfg.EvidenceField != "" && vctx.Extraction.FieldPresent(cfg.EvidenceField) {
		f := passFinding(r, fmt.Sprintf("constraint %s documented in %s", cfg.FlagField, cfg.EvidenceField))
		f.AttachEvidence(collectEvidence(vctx.Extraction, r, []string{cfg.EvidenceField})...)
		return f, nil
	}
	if hits := keywordEvidence(vctx.Extraction, cfg.EvidenceKeywords, model.MaxFindingEvidence); len(hits) > 0 {
		f := passFinding(r, fmt.Sprintf("constraint %s addressed in document text", cfg.FlagField))
		f.AttachEvidence(hits...)
		return f, nil
	}

	f := reviewFinding(r, fmt.Sprintf("constraint %s flagged without supporting evidence", cfg.FlagField))
	if cfg.EvidenceField != "" {
		f.MissingFields = []string{cfg.EvidenceField}
	}
	return f, nil
}
