// Package delta compares a revision submission against its parent and
// decides which rules need re-running and whether the change is
// significant enough to warrant a full re-validation.
package delta

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

// Weights assigned to change kinds before field-name adjustment.
const (
	weightField    = 0.3
	weightDocument = 0.5
	weightMetric   = 0.4
)

// safetyTerms marks field and metric names whose changes carry more weight:
// a moved setback or a changed flood answer matters more than a reworded
// description.
var safetyTerms = []string{
	"height", "setback", "fire", "structural", "drainage", "flood",
	"escape", "access", "contamination",
}

// Compute diffs a revision against its parent across extracted fields,
// document-type membership and spatial metrics, and returns the change
// set. The result is persisted by the caller; Compute itself only reads.
func Compute(ctx context.Context, st store.Store, parentID, childID string) (*model.ChangeSet, error) {
	cs := &model.ChangeSet{
		ID:           uuid.NewString(),
		SubmissionID: childID,
		ParentID:     parentID,
	}

	parentFields, err := fieldSnapshot(ctx, st, parentID)
	if err != nil {
		return nil, err
	}
	childFields, err := fieldSnapshot(ctx, st, childID)
	if err != nil {
		return nil, err
	}
	cs.Items = append(cs.Items, diffValues(parentFields, childFields, model.ChangeField, weightField)...)

	parentDocs, err := docTypeSnapshot(ctx, st, parentID)
	if err != nil {
		return nil, err
	}
	childDocs, err := docTypeSnapshot(ctx, st, childID)
	if err != nil {
		return nil, err
	}
	cs.Items = append(cs.Items, diffValues(parentDocs, childDocs, model.ChangeDocument, weightDocument)...)

	parentMetrics, err := metricSnapshot(ctx, st, parentID)
	if err != nil {
		return nil, err
	}
	childMetrics, err := metricSnapshot(ctx, st, childID)
	if err != nil {
		return nil, err
	}
	cs.Items = append(cs.Items, diffValues(parentMetrics, childMetrics, model.ChangeSpatialMetric, weightMetric)...)

	sort.Slice(cs.Items, func(i, j int) bool { return cs.Items[i].Entity < cs.Items[j].Entity })
	return cs, nil
}

func fieldSnapshot(ctx context.Context, st store.Store, submissionID string) (map[string]any, error) {
	fields, err := st.ListExtractedFields(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "delta: fields for submission %s", submissionID)
	}
	snap := make(map[string]any, len(fields))
	for _, f := range fields {
		snap[f.Name] = f.Value
	}
	return snap, nil
}

func docTypeSnapshot(ctx context.Context, st store.Store, submissionID string) (map[string]any, error) {
	docs, err := st.ListDocuments(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "delta: documents for submission %s", submissionID)
	}
	snap := make(map[string]any, len(docs))
	for _, d := range docs {
		snap[d.DocType] = true
	}
	return snap, nil
}

func metricSnapshot(ctx context.Context, st store.Store, submissionID string) (map[string]any, error) {
	metrics, err := st.ListSpatialMetrics(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "delta: metrics for submission %s", submissionID)
	}
	snap := make(map[string]any, len(metrics))
	for _, m := range metrics {
		snap[m.Name] = m.Value
	}
	return snap, nil
}

// diffValues builds change items for added, removed and altered keys.
func diffValues(old, new map[string]any, kind model.ChangeKind, baseWeight float64) []model.ChangeItem {
	var items []model.ChangeItem
	add := func(entity string, oldV, newV any) {
		items = append(items, model.ChangeItem{
			Kind:     kind,
			Entity:   entity,
			OldValue: oldV,
			NewValue: newV,
			Weight:   itemWeight(entity, baseWeight),
		})
	}

	for key, oldV := range old {
		newV, ok := new[key]
		if !ok {
			add(key, oldV, nil)
			continue
		}
		if !equalValue(oldV, newV) {
			add(key, oldV, newV)
		}
	}
	for key, newV := range new {
		if _, ok := old[key]; !ok {
			add(key, nil, newV)
		}
	}
	return items
}

// itemWeight bumps the base weight for safety-relevant names, capped at 1.
func itemWeight(entity string, base float64) float64 {
	lower := strings.ToLower(entity)
	for _, term := range safetyTerms {
		if strings.Contains(lower, term) {
			return math.Min(base*2, 1)
		}
	}
	return base
}

func equalValue(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return math.Abs(af-bf) < 1e-9
		}
		return false
	}
	return normalizeString(a) == normalizeString(b)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

func normalizeString(v any) string {
	return strings.TrimSpace(strings.ToLower(fmt.Sprintf("%v", v)))
}
