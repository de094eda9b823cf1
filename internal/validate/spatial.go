package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/geometry"
	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validateSpatial checks the rule's thresholds against the submission's
// derived spatial metrics. When no metrics are stored but geometry features
// are, area and boundary metrics are recomputed from the geometry on the
// fly. A configured threshold with no matching metric goes to review; a
// violated threshold is a hard fail.
func validateSpatial(ctx context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.Spatial
	if cfg == nil {
		return nil, nil
	}

	metrics, err := vctx.Store.ListSpatialMetrics(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "listing spatial metrics for submission %s", vctx.SubmissionID)
	}
	if len(metrics) == 0 {
		features, err := vctx.Store.ListGeometryFeatures(ctx, vctx.SubmissionID)
		if err != nil {
			return nil, eris.Wrapf(err, "listing geometry for submission %s", vctx.SubmissionID)
		}
		if len(features) == 0 {
			return reviewFinding(r, "no spatial metrics or geometry recorded for submission"), nil
		}
		metrics, err = geometry.DeriveMetrics(features)
		if err != nil {
			return nil, eris.Wrap(err, "deriving metrics from geometry")
		}
		zap.L().Debug("derived spatial metrics from geometry",
			zap.String("submission_id", vctx.SubmissionID),
			zap.Int("metrics", len(metrics)))
	}

	setbackKey, heightKey, areaKey := cfg.MetricSubstrings()
	find := func(substr string) (model.SpatialMetric, bool) {
		for _, m := range metrics {
			if strings.Contains(strings.ToLower(m.Name), strings.ToLower(substr)) {
				return m, true
			}
		}
		return model.SpatialMetric{}, false
	}

	var violations, unresolved []string
	check := func(substr string, test func(model.SpatialMetric) string) {
		m, ok := find(substr)
		if !ok {
			unresolved = append(unresolved, substr)
			return
		}
		if msg := test(m); msg != "" {
			violations = append(violations, msg)
		}
	}

	if cfg.MinSetbackM != nil {
		check(setbackKey, func(m model.SpatialMetric) string {
			if m.Value < *cfg.MinSetbackM {
				return fmt.Sprintf("%s %.2fm below minimum setback %.2fm", m.Name, m.Value, *cfg.MinSetbackM)
			}
			return ""
		})
	}
	if cfg.MaxHeightM != nil {
		check(heightKey, func(m model.SpatialMetric) string {
			if m.Value > *cfg.MaxHeightM {
				return fmt.Sprintf("%s %.2fm exceeds maximum height %.2fm", m.Name, m.Value, *cfg.MaxHeightM)
			}
			return ""
		})
	}
	if cfg.MinAreaM2 != nil || cfg.MaxAreaM2 != nil {
		check(areaKey, func(m model.SpatialMetric) string {
			if cfg.MinAreaM2 != nil && m.Value < *cfg.MinAreaM2 {
				return fmt.Sprintf("%s %.1fm2 below minimum %.1fm2", m.Name, m.Value, *cfg.MinAreaM2)
			}
			if cfg.MaxAreaM2 != nil && m.Value > *cfg.MaxAreaM2 {
				return fmt.Sprintf("%s %.1fm2 exceeds maximum %.1fm2", m.Name, m.Value, *cfg.MaxAreaM2)
			}
			return ""
		})
	}

	if len(violations) > 0 {
		return failFinding(r, "spatial thresholds violated: "+strings.Join(violations, "; ")), nil
	}
	if len(unresolved) > 0 {
		f := reviewFinding(r, "no metric matching: "+strings.Join(unresolved, ", "))
		f.MissingFields = unresolved
		return f, nil
	}
	return passFinding(r, "spatial metrics within thresholds"), nil
}
