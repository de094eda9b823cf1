package geometry

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// SRID for British National Grid. Coordinates are in metres, so areas and
// lengths computed from the geometry are already in m2 and m.
const sridBNG = 27700

// ReadFeatures reads every shape from a shapefile into geometry features
// for the given submission. Feature names come from a name-like DBF
// attribute when one exists, falling back to the file's base name plus the
// record index. Unsupported or malformed shapes are skipped.
func ReadFeatures(path, submissionID string) ([]model.GeometryFeature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		if name == "name" || name == "feature" || name == "layer" {
			nameIdx = i
			break
		}
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var features []model.GeometryFeature
	var skipped int
	for i := 0; reader.Next(); i++ {
		_, shape := reader.Shape()
		wkb, err := EncodeWKB(shape)
		if err != nil || wkb == nil {
			skipped++
			continue
		}
		name := fmt.Sprintf("%s_%d", base, i)
		if nameIdx >= 0 {
			if attr := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00")); attr != "" {
				name = attr
			}
		}
		features = append(features, model.GeometryFeature{
			ID:           uuid.NewString(),
			SubmissionID: submissionID,
			Name:         name,
			WKB:          wkb,
		})
	}
	if skipped > 0 {
		zap.L().Debug("skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped))
	}
	return features, nil
}

// EncodeWKB converts a go-shp geometry to EWKB bytes in the British
// National Grid. Returns nil, nil for unsupported or nil shapes.
func EncodeWKB(shape shp.Shape) ([]byte, error) {
	if shape == nil {
		return nil, nil
	}

	var g geom.T
	switch s := shape.(type) {
	case *shp.Point:
		g = geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(sridBNG)
	case *shp.PolyLine:
		g = polyLineToMultiLineString(s)
	case *shp.Polygon:
		g = polygonToMultiPolygon(s)
	default:
		return nil, nil
	}
	if g == nil {
		return nil, nil
	}

	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode WKB")
	}
	return data, nil
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY).SetSRID(sridBNG)
	for i := int32(0); i < pl.NumParts; i++ {
		coords := partCoords(pl.Points, pl.Parts, i, pl.NumParts)
		ls := geom.NewLineStringFlat(geom.XY, flatCoords(coords))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(sridBNG)
	for i := int32(0); i < p.NumParts; i++ {
		coords := partCoords(p.Points, p.Parts, i, p.NumParts)
		ring := geom.NewLinearRingFlat(geom.XY, flatCoords(coords))
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func partCoords(points []shp.Point, parts []int32, i, numParts int32) []geom.Coord {
	start := parts[i]
	end := int32(len(points))
	if i+1 < numParts {
		end = parts[i+1]
	}
	coords := make([]geom.Coord, 0, end-start)
	for j := start; j < end; j++ {
		coords = append(coords, geom.Coord{points[j].X, points[j].Y})
	}
	return coords
}

func flatCoords(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
