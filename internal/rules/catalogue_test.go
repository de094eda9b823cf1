package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

func TestNewCatalogueRejectsEmpty(t *testing.T) {
	_, err := NewCatalogue(nil)
	assert.Error(t, err)
}

func TestNewCatalogueRejectsDuplicateIDs(t *testing.T) {
	_, err := NewCatalogue([]Rule{
		{ID: "r1", Severity: model.SeverityError},
		{ID: "r1", Severity: model.SeverityError},
	})
	assert.Error(t, err)
}

func TestNewCatalogueRejectsUnknownCategory(t *testing.T) {
	_, err := NewCatalogue([]Rule{{ID: "r1", Category: "astrology"}})
	assert.Error(t, err)
}

func TestNewCatalogueDefaultsSeverityAndCategory(t *testing.T) {
	cat, err := NewCatalogue([]Rule{{ID: "r1", RequiredFields: []string{"site_address"}}})
	require.NoError(t, err)

	r := cat.ByID("r1")
	require.NotNil(t, r)
	assert.Equal(t, model.SeverityError, r.Severity)
	assert.Equal(t, CategoryFieldRequired, r.Category)
}

func TestNewCatalogueRejectsBadFeeRange(t *testing.T) {
	_, err := NewCatalogue([]Rule{{
		ID: "fee", Category: CategoryFee,
		Config: Config{Fee: &FeeConfig{Default: &Range{Min: 500, Max: 100}}},
	}})
	assert.Error(t, err)
}

func TestNewCatalogueRejectsEmptySpatialConfig(t *testing.T) {
	_, err := NewCatalogue([]Rule{{
		ID: "spatial", Category: CategorySpatial,
		Config: Config{Spatial: &SpatialConfig{}},
	}})
	assert.Error(t, err)
}

func TestCatalogueIndexes(t *testing.T) {
	maxHeight := 8.0
	cat, err := NewCatalogue([]Rule{
		{ID: "fee", Category: CategoryFee,
			Config: Config{Fee: &FeeConfig{FeeField: "fee_amount", Default: &Range{Min: 100}}}},
		{ID: "docs", Category: CategoryDocumentRequired,
			Config: Config{Document: &DocumentConfig{
				RequiredTypes: []string{"site_plan"},
				ByApplicationType: map[string][]string{
					"householder": {"location_plan"},
				},
			}}},
		{ID: "height", Category: CategorySpatial,
			Config: Config{Spatial: &SpatialConfig{MaxHeightM: &maxHeight}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	// Config fields feed the field index alongside required_fields.
	require.Len(t, cat.ForField("fee_amount"), 1)
	assert.Equal(t, "fee", cat.ForField("fee_amount")[0].ID)
	assert.Empty(t, cat.ForField("unknown"))

	// Document types from both the flat list and the per-type map.
	require.Len(t, cat.ForDocType("site_plan"), 1)
	require.Len(t, cat.ForDocType("location_plan"), 1)

	require.Len(t, cat.ForMetric("ridge_height_m"), 1)
	assert.Empty(t, cat.ForMetric("boundary_length_m"))
	assert.Len(t, cat.ByCategory(CategoryFee), 1)
}

func TestForMetricFoldsConfiguredSubstrings(t *testing.T) {
	maxArea := 120.0
	cat, err := NewCatalogue([]Rule{
		{ID: "footprint-cap", Category: CategorySpatial,
			Config: Config{Spatial: &SpatialConfig{
				AreaMetric: "Footprint",
				MaxAreaM2:  &maxArea,
			}}},
	})
	require.NoError(t, err)

	// A mixed-case override matches the same metrics the spatial
	// validator would evaluate.
	assert.Len(t, cat.ForMetric("footprint_m2"), 1)
	assert.Len(t, cat.ForMetric("FOOTPRINT_M2"), 1)
	assert.Empty(t, cat.ForMetric("boundary_length_m"))
}

func TestRuleAppliesToDoc(t *testing.T) {
	unrestricted := Rule{ID: "r1"}
	assert.True(t, unrestricted.AppliesToDoc("anything"))

	scoped := Rule{ID: "r2", AppliesTo: []string{"site_plan", "location_plan"}}
	assert.True(t, scoped.AppliesToDoc("site_plan"))
	assert.False(t, scoped.AppliesToDoc("application_form"))
}

func TestRangeContains(t *testing.T) {
	r := Range{Min: 100, Max: 300}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(300))
	assert.False(t, r.Contains(99))
	assert.False(t, r.Contains(301))

	// Zero max means unbounded above.
	open := Range{Min: 100}
	assert.True(t, open.Contains(1e9))
	assert.False(t, open.Contains(50))
}

func TestDocumentConfigTypesFor(t *testing.T) {
	cfg := &DocumentConfig{
		ByApplicationType: map[string][]string{
			"householder": {"site_plan"},
			"default":     {"application_form"},
		},
	}
	types, ok := cfg.TypesFor("householder")
	require.True(t, ok)
	assert.Equal(t, []string{"site_plan"}, types)

	types, ok = cfg.TypesFor("outline")
	require.True(t, ok)
	assert.Equal(t, []string{"application_form"}, types)

	var nilCfg *DocumentConfig
	_, ok = nilCfg.TypesFor("householder")
	assert.False(t, ok)
}
