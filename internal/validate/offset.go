package validate

import (
	"context"
	"fmt"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validateOffset checks the biodiversity net-gain arithmetic: proposed
// habitat units must exceed the baseline by the configured percentage.
// Falling short of a declared gain requirement is a hard fail.
func validateOffset(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.Offset
	if cfg == nil {
		return nil, nil
	}
	if cfg.TriggerField != "" && !boolField(vctx.Extraction, cfg.TriggerField) {
		return nil, nil
	}

	var missing []string
	baseline, ok := parseAmount(vctx.Extraction.Fields[cfg.BaselineField])
	if !ok {
		missing = append(missing, cfg.BaselineField)
	}
	proposed, ok := parseAmount(vctx.Extraction.Fields[cfg.ProposedField])
	if !ok {
		missing = append(missing, cfg.ProposedField)
	}
	if len(missing) > 0 {
		f := reviewFinding(r, "net gain calculation inputs missing")
		f.MissingFields = missing
		return f, nil
	}
	if baseline <= 0 {
		return reviewFinding(r, fmt.Sprintf("baseline habitat units must be positive, got %.2f", baseline)), nil
	}

	gain := (proposed - baseline) / baseline * 100
	if gain+1e-9 >= cfg.RequiredGainPct {
		return passFinding(r, fmt.Sprintf("net gain %.1f%% meets required %.1f%%", gain, cfg.RequiredGainPct)), nil
	}
	return failFinding(r, fmt.Sprintf("net gain %.1f%% below required %.1f%%", gain, cfg.RequiredGainPct)), nil
}
