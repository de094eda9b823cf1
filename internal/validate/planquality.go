package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validatePlanQuality checks drawing conventions on plan documents: a
// recognized scale, a north arrow where required, and an accepted paper
// size. An unacceptable declared scale is a hard fail; missing or
// unverifiable attributes go to review.
func validatePlanQuality(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.PlanQuality
	if cfg == nil {
		return nil, nil
	}

	var issues, missing []string
	hardFail := false

	if cfg.ScaleField != "" {
		scale := normalizeScale(stringField(vctx.Extraction, cfg.ScaleField))
		switch {
		case scale == "":
			issues = append(issues, "drawing scale not stated")
			missing = append(missing, cfg.ScaleField)
		case len(cfg.AcceptableScales) > 0 && !containsScale(cfg.AcceptableScales, scale):
			issues = append(issues, fmt.Sprintf("scale %s not in accepted set %s",
				scale, strings.Join(cfg.AcceptableScales, ", ")))
			hardFail = true
		}
	}
	if cfg.NorthArrowField != "" && !boolField(vctx.Extraction, cfg.NorthArrowField) {
		issues = append(issues, "north arrow not indicated")
		missing = append(missing, cfg.NorthArrowField)
	}
	if cfg.PaperSizeField != "" && len(cfg.PaperSizes) > 0 {
		size := strings.ToLower(stringField(vctx.Extraction, cfg.PaperSizeField))
		if size == "" {
			issues = append(issues, "paper size not stated")
			missing = append(missing, cfg.PaperSizeField)
		} else if !contains(lowerAll(cfg.PaperSizes), size) {
			issues = append(issues, fmt.Sprintf("paper size %s not accepted", size))
		}
	}

	if len(issues) == 0 {
		return passFinding(r, "drawing conventions satisfied"), nil
	}
	msg := "drawing quality issues: " + strings.Join(issues, "; ")
	var f *model.Finding
	if hardFail {
		f = failFinding(r, msg)
	} else {
		f = reviewFinding(r, msg)
	}
	f.MissingFields = missing
	return f, nil
}

// normalizeScale canonicalizes scale notation: "1 : 100" and "1:100"
// compare equal.
func normalizeScale(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

func containsScale(accepted []string, scale string) bool {
	for _, a := range accepted {
		if normalizeScale(a) == scale {
			return true
		}
	}
	return false
}
