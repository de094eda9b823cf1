package delta

import (
	"sort"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// DefaultSignificanceThreshold separates a touch-up from a material
// revision.
const DefaultSignificanceThreshold = 0.5

// ImpactedRules maps a change set onto the rules whose inputs it touched,
// via the catalogue's field, document-type and metric indexes. Consistency
// rules are re-run for any field change since cross-document agreement can
// break from either side. An empty change set impacts nothing.
func ImpactedRules(cs *model.ChangeSet, cat *rules.Catalogue) []*rules.Rule {
	if cs == nil || len(cs.Items) == 0 {
		return nil
	}

	seen := map[string]*rules.Rule{}
	collect := func(matched []*rules.Rule) {
		for _, r := range matched {
			seen[r.ID] = r
		}
	}

	for _, item := range cs.Items {
		switch item.Kind {
		case model.ChangeField:
			collect(cat.ForField(item.Entity))
			collect(cat.ByCategory(rules.CategoryConsistency))
		case model.ChangeDocument:
			collect(cat.ForDocType(item.Entity))
		case model.ChangeSpatialMetric:
			collect(cat.ForMetric(item.Entity))
		}
	}

	out := make([]*rules.Rule, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Significance folds the per-item weights into a single score in [0, 1]
// with a noisy-or: each change independently raises the score, and many
// small changes add up without any single one dominating.
func Significance(cs *model.ChangeSet) float64 {
	if cs == nil {
		return 0
	}
	remaining := 1.0
	for _, item := range cs.Items {
		w := item.Weight
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		remaining *= 1 - w
	}
	return 1 - remaining
}

// IsSignificant applies the threshold, using the default when the given
// threshold is not positive.
func IsSignificant(cs *model.ChangeSet, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultSignificanceThreshold
	}
	return Significance(cs) >= threshold
}
