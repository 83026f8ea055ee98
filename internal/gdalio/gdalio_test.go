package gdalio

import (
	"math"
	"path/filepath"
	"testing"

	"heightval/internal/model"
	"heightval/internal/raster"
	"heightval/internal/vector"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorDriver(t *testing.T) {
	d, err := vectorDriver("out/buildings.GPKG")
	require.NoError(t, err)
	assert.Equal(t, godal.DriverName("GPKG"), d)

	d, err = vectorDriver("b.shp")
	require.NoError(t, err)
	assert.Equal(t, godal.DriverName("ESRI Shapefile"), d)

	_, err = vectorDriver("b.txt")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestFieldSchema(t *testing.T) {
	buildings := []*model.Building{
		{Properties: map[string]interface{}{"id": "a", "height": 3, "num_points": int64(4), "note": nil}},
		{Properties: map[string]interface{}{"id": "b", "height": 4.5, "num_points": int64(2), "mixed": "x"}},
		{Properties: map[string]interface{}{"mixed": 2.0}},
	}

	assert.Equal(t, []fieldDef{
		{name: "height", kind: godal.FTReal},
		{name: "id", kind: godal.FTString},
		{name: "mixed", kind: godal.FTString},
		{name: "num_points", kind: godal.FTInt64},
	}, fieldSchema(buildings))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 3.0, coerce(3, godal.FTReal))
	assert.Equal(t, int64(3), coerce(3, godal.FTInt64))
	assert.Equal(t, "2.5", coerce(2.5, godal.FTString))
	assert.Equal(t, "x", coerce("x", godal.FTString))
}

func TestAsMultiPolygon(t *testing.T) {
	p := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}
	assert.Equal(t, orb.MultiPolygon{p}, asMultiPolygon(p))
	assert.Equal(t, orb.MultiPolygon{p}, asMultiPolygon(orb.MultiPolygon{p}))
}

func TestGeometryType(t *testing.T) {
	poly := &model.Building{Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}
	assert.Equal(t, godal.GTMultiPolygon, geometryType([]*model.Building{poly}))
	assert.Equal(t, godal.GTUnknown, geometryType([]*model.Building{poly, {Geometry: orb.Point{1, 1}}}))
}

func TestReadLayerSkipsNullHeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.gpkg")
	square := func(x float64) orb.Polygon {
		return orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}}
	}
	require.NoError(t, WriteLayer(path, &vector.Layer{Name: "buildings", CRS: model.CRSFromEPSG(28992), Buildings: []*model.Building{
		{ID: "a", Geometry: square(0), Properties: map[string]interface{}{"id": "a", "height": 12.5}},
		{ID: "b", Geometry: square(2), Properties: map[string]interface{}{"id": "b", "height": nil}},
	}}))

	layer, err := ReadLayer(path, vector.DefaultFields)
	require.NoError(t, err)
	require.Len(t, layer.Buildings, 1)
	assert.Equal(t, "a", layer.Buildings[0].ID)
	assert.Equal(t, 12.5, layer.Buildings[0].Height)

	all, err := ReadLayer(path, vector.Fields{Height: vector.NoHeight})
	require.NoError(t, err)
	require.Len(t, all.Buildings, 2)
	assert.Nil(t, all.Buildings[1].Properties["height"])
}

func TestWithSentinel(t *testing.T) {
	g, err := raster.FromRows([][]float64{{1, math.NaN(), -9999}}, raster.NewNorthUp(0, 1, 1, 1), model.CRS{})
	require.NoError(t, err)
	g.NoData, g.HasNoData = -9999, true

	assert.Equal(t, []float64{1, -9999, -9999}, withSentinel(g))
}

func TestWarpSwitches(t *testing.T) {
	got := warpSwitches(WarpOptions{Target: model.CRSFromEPSG(28992), Resampling: raster.Nearest, Resolution: 0.5})
	assert.Equal(t, []string{"-of", "GTiff", "-r", "near", "-t_srs", "EPSG:28992", "-tr", "0.5", "0.5"}, got)
}
