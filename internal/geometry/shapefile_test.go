package geometry

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestEncodeWKBPoint(t *testing.T) {
	data, err := EncodeWKB(&shp.Point{X: 530000, Y: 180000})
	require.NoError(t, err)
	require.NotNil(t, data)

	g, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	point, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, sridBNG, point.SRID())
	assert.Equal(t, []float64{530000, 180000}, point.FlatCoords())
}

func TestEncodeWKBPolygon(t *testing.T) {
	polygon := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
		},
	}
	data, err := EncodeWKB(polygon)
	require.NoError(t, err)
	require.NotNil(t, data)

	g, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, sridBNG, mp.SRID())
}

func TestEncodeWKBPolyLine(t *testing.T) {
	line := &shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 2},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 5, Y: 0},
			{X: 10, Y: 10}, {X: 10, Y: 20},
		},
	}
	data, err := EncodeWKB(line)
	require.NoError(t, err)
	require.NotNil(t, data)

	g, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	mls, ok := g.(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 2, mls.NumLineStrings())
}

func TestEncodeWKBNilAndEmpty(t *testing.T) {
	data, err := EncodeWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = EncodeWKB(&shp.Polygon{})
	require.NoError(t, err)
	assert.Nil(t, data)
}
