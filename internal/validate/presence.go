package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validateFieldRequired checks that the rule's required fields are present
// in the extraction. Default semantics are AND; required_fields_any flips
// to OR, where a single present field satisfies the rule and a total miss
// reports the full configured list as missing.
func validateFieldRequired(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	if len(r.RequiredFields) == 0 {
		return nil, nil
	}

	var missing []string
	for _, name := range r.RequiredFields {
		if !vctx.Extraction.FieldPresent(name) {
			missing = append(missing, name)
		}
	}

	if r.RequiredFieldsAny {
		if len(missing) < len(r.RequiredFields) {
			return passFinding(r, "at least one of the required fields is present"), nil
		}
		f := reviewFinding(r, fmt.Sprintf("none of the alternative fields present: %s",
			strings.Join(r.RequiredFields, ", ")))
		f.MissingFields = append([]string(nil), r.RequiredFields...)
		return f, nil
	}

	if len(missing) == 0 {
		return passFinding(r, "all required fields present"), nil
	}
	f := reviewFinding(r, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	f.MissingFields = missing
	f.AttachEvidence(collectEvidence(vctx.Extraction, r, r.RequiredFields)...)
	return f, nil
}

func passFinding(r *rules.Rule, msg string) *model.Finding {
	return &model.Finding{
		Severity: r.Severity,
		Status:   model.StatusPass,
		Message:  msg,
	}
}

func reviewFinding(r *rules.Rule, msg string) *model.Finding {
	return &model.Finding{
		Severity: r.Severity,
		Status:   model.StatusNeedsReview,
		Message:  msg,
	}
}

func failFinding(r *rules.Rule, msg string) *model.Finding {
	return &model.Finding{
		Severity: r.Severity,
		Status:   model.StatusFail,
		Message:  msg,
	}
}
