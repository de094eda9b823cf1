package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validatePriorApproval fires when any configured trigger field is
// affirmative: the matter then needs its determination fields filled in.
// With no trigger set the rule does not apply.
func validatePriorApproval(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.PriorApproval
	if cfg == nil || len(cfg.TriggerFields) == 0 {
		return nil, nil
	}

	var triggered []string
	for _, name := range cfg.TriggerFields {
		if boolField(vctx.Extraction, name) {
			triggered = append(triggered, name)
		}
	}
	if len(triggered) == 0 {
		return nil, nil
	}

	var missing []string
	for _, name := range cfg.DeterminationFields {
		if !vctx.Extraction.FieldPresent(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return passFinding(r, fmt.Sprintf("prior approval matters (%s) fully determined",
			strings.Join(triggered, ", "))), nil
	}
	f := reviewFinding(r, fmt.Sprintf("prior approval triggered by %s but determination incomplete: %s",
		strings.Join(triggered, ", "), strings.Join(missing, ", ")))
	f.MissingFields = missing
	return f, nil
}
