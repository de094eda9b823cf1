package geometry

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// DeriveMetrics computes numeric measurements from a submission's geometry
// features. Polygons yield an area and a perimeter metric; lines yield a
// length metric. A feature named like a site boundary additionally emits
// the canonical site_area_m2 and boundary_length_m names that spatial
// rules match by default.
func DeriveMetrics(features []model.GeometryFeature) ([]model.SpatialMetric, error) {
	var metrics []model.SpatialMetric
	add := func(subID, name string, value float64, unit string) {
		metrics = append(metrics, model.SpatialMetric{
			SubmissionID: subID,
			Name:         name,
			Value:        value,
			Unit:         unit,
		})
	}

	for _, f := range features {
		g, err := ewkb.Unmarshal(f.WKB)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: decode feature %s", f.Name)
		}
		key := metricKey(f.Name)

		switch shape := g.(type) {
		case *geom.Polygon:
			add(f.SubmissionID, key+"_area_m2", math.Abs(shape.Area()), "m2")
			add(f.SubmissionID, key+"_perimeter_m", shape.Length(), "m")
		case *geom.MultiPolygon:
			add(f.SubmissionID, key+"_area_m2", math.Abs(shape.Area()), "m2")
			add(f.SubmissionID, key+"_perimeter_m", shape.Length(), "m")
		case *geom.LineString:
			add(f.SubmissionID, key+"_length_m", shape.Length(), "m")
		case *geom.MultiLineString:
			add(f.SubmissionID, key+"_length_m", shape.Length(), "m")
		default:
			// points carry no derivable measurement
		}

		if isSiteBoundary(f.Name) {
			last := len(metrics)
			for _, m := range metrics[:last] {
				if m.Name == key+"_area_m2" {
					add(f.SubmissionID, "site_area_m2", m.Value, "m2")
				}
				if m.Name == key+"_perimeter_m" {
					add(f.SubmissionID, "boundary_length_m", m.Value, "m")
				}
			}
		}
	}
	return metrics, nil
}

func metricKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '-' || r == '.'
	}), "_")
	if key == "" {
		key = "feature"
	}
	return key
}

func isSiteBoundary(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "site") || strings.Contains(lower, "boundary") ||
		strings.Contains(lower, "red_line") || strings.Contains(lower, "red line")
}

// Summarize renders a short human-readable line per metric, used by the
// CLI when inspecting a submission's geometry.
func Summarize(metrics []model.SpatialMetric) []string {
	out := make([]string, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, fmt.Sprintf("%s = %.2f %s", m.Name, m.Value, m.Unit))
	}
	return out
}
