package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

func marshalEWKB(t *testing.T, g geom.T) []byte {
	t.Helper()
	data, err := ewkb.Marshal(g, ewkb.NDR)
	require.NoError(t, err)
	return data
}

// squareWKB builds a side x side square polygon with its corner at origin.
func squareWKB(t *testing.T, side float64) []byte {
	poly := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, side, 0, side, side, 0, side, 0, 0,
	}, []int{10}).SetSRID(sridBNG)
	return marshalEWKB(t, poly)
}

func TestDeriveMetricsPolygon(t *testing.T) {
	metrics, err := DeriveMetrics([]model.GeometryFeature{
		{SubmissionID: "sub-1", Name: "Site Boundary", WKB: squareWKB(t, 20)},
	})
	require.NoError(t, err)

	byName := map[string]model.SpatialMetric{}
	for _, m := range metrics {
		byName[m.Name] = m
	}

	area, ok := byName["site_boundary_area_m2"]
	require.True(t, ok)
	assert.InDelta(t, 400, area.Value, 1e-9)
	assert.Equal(t, "m2", area.Unit)

	perimeter, ok := byName["site_boundary_perimeter_m"]
	require.True(t, ok)
	assert.InDelta(t, 80, perimeter.Value, 1e-9)

	// A boundary-named feature also emits the canonical metric names.
	canonical, ok := byName["site_area_m2"]
	require.True(t, ok)
	assert.InDelta(t, 400, canonical.Value, 1e-9)
	_, ok = byName["boundary_length_m"]
	assert.True(t, ok)
}

func TestDeriveMetricsLineString(t *testing.T) {
	line := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 30, 40}).SetSRID(sridBNG)
	metrics, err := DeriveMetrics([]model.GeometryFeature{
		{SubmissionID: "sub-1", Name: "access-route", WKB: marshalEWKB(t, line)},
	})
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, "access_route_length_m", metrics[0].Name)
	assert.InDelta(t, 50, metrics[0].Value, 1e-9)
	assert.Equal(t, "m", metrics[0].Unit)
}

func TestDeriveMetricsPointYieldsNothing(t *testing.T) {
	point := geom.NewPointFlat(geom.XY, []float64{100, 200}).SetSRID(sridBNG)
	metrics, err := DeriveMetrics([]model.GeometryFeature{
		{SubmissionID: "sub-1", Name: "entrance", WKB: marshalEWKB(t, point)},
	})
	require.NoError(t, err)
	assert.Empty(t, metrics)
}

func TestDeriveMetricsBadWKB(t *testing.T) {
	_, err := DeriveMetrics([]model.GeometryFeature{
		{SubmissionID: "sub-1", Name: "broken", WKB: []byte{0x00, 0x01}},
	})
	assert.Error(t, err)
}

func TestMetricKey(t *testing.T) {
	assert.Equal(t, "site_boundary", metricKey("Site Boundary"))
	assert.Equal(t, "red_line", metricKey("red-line"))
	assert.Equal(t, "feature", metricKey("  "))
}

func TestIsSiteBoundary(t *testing.T) {
	assert.True(t, isSiteBoundary("Site Boundary"))
	assert.True(t, isSiteBoundary("red line"))
	assert.True(t, isSiteBoundary("red_line_v2"))
	assert.False(t, isSiteBoundary("proposed extension"))
}

func TestSummarize(t *testing.T) {
	lines := Summarize([]model.SpatialMetric{
		{Name: "site_area_m2", Value: 400, Unit: "m2"},
	})
	require.Len(t, lines, 1)
	assert.Equal(t, "site_area_m2 = 400.00 m2", lines[0])
}
