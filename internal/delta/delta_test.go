package delta

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

// twoVersionStore seeds a parent and child submission pair whose fields,
// documents and metrics differ in controlled ways.
func twoVersionStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.CreateApplication(ctx, &model.Application{
		Reference: "APP/1", Type: model.AppTypeHouseholder,
	}))
	require.NoError(t, st.CreateSubmission(ctx, &model.Submission{
		ID: "parent", ApplicationRef: "APP/1", Version: 0,
	}))
	require.NoError(t, st.CreateSubmission(ctx, &model.Submission{
		ID: "child", ApplicationRef: "APP/1", Version: 1, ParentID: "parent",
	}))

	parentForm := &model.Document{SubmissionID: "parent", Filename: "form.pdf", DocType: "application_form"}
	require.NoError(t, st.CreateDocument(ctx, parentForm))
	parentPlan := &model.Document{SubmissionID: "parent", Filename: "plan.pdf", DocType: "site_plan"}
	require.NoError(t, st.CreateDocument(ctx, parentPlan))
	childForm := &model.Document{SubmissionID: "child", Filename: "form_v2.pdf", DocType: "application_form"}
	require.NoError(t, st.CreateDocument(ctx, childForm))
	childHeritage := &model.Document{SubmissionID: "child", Filename: "heritage.pdf", DocType: "heritage_statement"}
	require.NoError(t, st.CreateDocument(ctx, childHeritage))

	require.NoError(t, st.PutExtractedFields(ctx, parentForm.ID, []model.ExtractedField{
		{Name: "site_address", Value: "1 High Street", Confidence: 0.9},
		{Name: "extension_depth_m", Value: 4.0, Confidence: 0.9},
		{Name: "ridge_height_m", Value: 6.0, Confidence: 0.9},
	}))
	require.NoError(t, st.PutExtractedFields(ctx, childForm.ID, []model.ExtractedField{
		{Name: "site_address", Value: "1 HIGH STREET", Confidence: 0.9},
		{Name: "extension_depth_m", Value: 3.5, Confidence: 0.9},
		{Name: "ridge_height_m", Value: 7.0, Confidence: 0.9},
	}))

	require.NoError(t, st.PutSpatialMetrics(ctx, []model.SpatialMetric{
		{SubmissionID: "parent", Name: "site_area_m2", Value: 420, Unit: "m2"},
		{SubmissionID: "child", Name: "site_area_m2", Value: 420, Unit: "m2"},
	}))
	return st
}

func TestComputeDiffsAllThreeKinds(t *testing.T) {
	ctx := context.Background()
	st := twoVersionStore(t)

	cs, err := Compute(ctx, st, "parent", "child")
	require.NoError(t, err)
	require.NotNil(t, cs)
	assert.Equal(t, "child", cs.SubmissionID)
	assert.Equal(t, "parent", cs.ParentID)

	byEntity := map[string]model.ChangeItem{}
	for _, item := range cs.Items {
		byEntity[item.Entity] = item
	}

	// Numeric field alterations are picked up with old and new values.
	depth, ok := byEntity["extension_depth_m"]
	require.True(t, ok)
	assert.Equal(t, model.ChangeField, depth.Kind)

	// Case differences do not count as a change.
	_, ok = byEntity["site_address"]
	assert.False(t, ok)

	// Document-type membership: one removed, one added.
	sitePlan, ok := byEntity["site_plan"]
	require.True(t, ok)
	assert.Equal(t, model.ChangeDocument, sitePlan.Kind)
	assert.Nil(t, sitePlan.NewValue)
	heritage, ok := byEntity["heritage_statement"]
	require.True(t, ok)
	assert.Equal(t, model.ChangeDocument, heritage.Kind)
	assert.Nil(t, heritage.OldValue)

	// Unchanged metrics produce no item.
	_, ok = byEntity["site_area_m2"]
	assert.False(t, ok)
}

func TestSafetyTermsDoubleWeight(t *testing.T) {
	ctx := context.Background()
	st := twoVersionStore(t)

	cs, err := Compute(ctx, st, "parent", "child")
	require.NoError(t, err)

	var depth, height float64
	for _, item := range cs.Items {
		switch item.Entity {
		case "extension_depth_m":
			depth = item.Weight
		case "ridge_height_m":
			height = item.Weight
		}
	}
	assert.InDelta(t, weightField, depth, 1e-9)
	assert.InDelta(t, weightField*2, height, 1e-9)
}

func TestItemWeightCappedAtOne(t *testing.T) {
	assert.InDelta(t, 1.0, itemWeight("fire_escape_width", 0.6), 1e-9)
	assert.InDelta(t, 0.6, itemWeight("application_form", 0.6), 1e-9)
}

func TestEqualValueNumericTolerance(t *testing.T) {
	assert.True(t, equalValue(4.0, 4))
	assert.True(t, equalValue(4.0, 4.0+1e-12))
	assert.False(t, equalValue(4.0, 4.1))
	assert.True(t, equalValue("Yes", "yes "))
	assert.False(t, equalValue("4.0", 4.0))
}

func TestSignificanceNoisyOr(t *testing.T) {
	assert.Zero(t, Significance(nil))
	assert.Zero(t, Significance(&model.ChangeSet{}))

	cs := &model.ChangeSet{Items: []model.ChangeItem{
		{Entity: "a", Weight: 0.3},
		{Entity: "b", Weight: 0.4},
	}}
	// 1 - (0.7 * 0.6) = 0.58
	assert.InDelta(t, 0.58, Significance(cs), 1e-9)

	// Out-of-range weights are clamped.
	cs = &model.ChangeSet{Items: []model.ChangeItem{
		{Entity: "a", Weight: 1.5},
	}}
	assert.InDelta(t, 1.0, Significance(cs), 1e-9)
}

func TestIsSignificantDefaultThreshold(t *testing.T) {
	cs := &model.ChangeSet{Items: []model.ChangeItem{
		{Entity: "a", Weight: 0.3},
		{Entity: "b", Weight: 0.4},
	}}
	assert.True(t, IsSignificant(cs, 0)) // 0.58 >= default 0.5
	assert.False(t, IsSignificant(cs, 0.6))
	assert.True(t, IsSignificant(cs, 0.58))
}
