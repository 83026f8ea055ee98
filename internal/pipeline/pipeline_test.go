package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"heightval/internal/model"
	"heightval/internal/pointcloud"
	"heightval/internal/proj"
	"heightval/internal/raster"
	"heightval/internal/vector"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rd = model.CRSFromEPSG(28992)

type fakeLoader struct {
	rasters map[string]*raster.Grid
	layers  map[string]*vector.Layer
	clouds  map[string]pointcloud.Cloud
	written map[string]interface{}
	fields  map[string]vector.Fields
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		rasters: map[string]*raster.Grid{},
		layers:  map[string]*vector.Layer{},
		clouds:  map[string]pointcloud.Cloud{},
		written: map[string]interface{}{},
		fields:  map[string]vector.Fields{},
	}
}

func (f *fakeLoader) ReadRaster(path string, fallback model.CRS) (*raster.Grid, error) {
	g, ok := f.rasters[path]
	if !ok {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, os.ErrNotExist)
	}
	if g.CRS.IsZero() {
		c := *g
		c.CRS = fallback
		return &c, nil
	}
	return g, nil
}

func (f *fakeLoader) WriteRaster(path string, g *raster.Grid) error {
	f.written[path] = g
	return nil
}

func (f *fakeLoader) WriteMask(path string, g *raster.Grid) error {
	f.written[path] = g
	return nil
}

func (f *fakeLoader) ReadLayer(path string, fields vector.Fields) (*vector.Layer, error) {
	f.fields[path] = fields
	l, ok := f.layers[path]
	if !ok {
		return nil, fmt.Errorf("failed to open vector %s: %w", path, os.ErrNotExist)
	}
	return l, nil
}

func (f *fakeLoader) WriteLayer(path string, layer *vector.Layer) error {
	f.written[path] = layer
	return nil
}

func (f *fakeLoader) ReadPointCloud(path string) (pointcloud.Cloud, error) {
	c, ok := f.clouds[path]
	if !ok {
		return pointcloud.Cloud{}, fmt.Errorf("failed to open point cloud %s: %w", path, os.ErrNotExist)
	}
	return c, nil
}

func (f *fakeLoader) Projections() proj.Factory { return proj.Builtin }

func box(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

func building(id string, h float64, g orb.Geometry) *model.Building {
	return &model.Building{ID: id, Height: h, Geometry: g, Properties: map[string]interface{}{"id": id, "height": h}}
}

// 4x4 one metre grid with origin (0, 4): building A covers the top-left
// quarter, B the bottom-right one and C no cell centre at all
func compareFixture(t *testing.T) *fakeLoader {
	t.Helper()
	grid, err := raster.FromRows([][]float64{
		{10, 12, 1, 1},
		{14, 16, 1, 1},
		{1, 1, 20, 22},
		{1, 1, 24, 26},
	}, raster.NewNorthUp(0, 4, 1, 1), rd)
	require.NoError(t, err)

	l := newFakeLoader()
	l.rasters["dsm.tif"] = grid
	l.layers["aoi.gpkg"] = &vector.Layer{Name: "aoi", CRS: rd, Buildings: []*model.Building{
		building("0", 0, box(0, 0, 4, 4)),
	}}
	l.layers["buildings.gpkg"] = &vector.Layer{Name: "buildings", CRS: rd, Buildings: []*model.Building{
		building("A", 10, box(0, 2, 2, 4)),
		building("B", 25, box(2, 0, 4, 2)),
		building("C", 5, box(0.1, 0.1, 0.4, 0.4)),
	}}
	return l
}

func compareParams() CompareParams {
	return CompareParams{
		RunID:  "test-run",
		AOI:    "aoi.gpkg",
		Raster: "dsm.tif",
		Vector: "buildings.gpkg",
		Fields: vector.DefaultFields,
	}
}

func TestCompare(t *testing.T) {
	loader := compareFixture(t)

	report, err := Compare(context.Background(), loader, compareParams())
	require.NoError(t, err)

	assert.Equal(t, "test-run", report.RunID)
	assert.Equal(t, 16, report.Raster.Valid)
	assert.Equal(t, 3, report.Overall.Buildings)
	assert.Equal(t, 2, report.Overall.Matched)
	assert.InDelta(t, 0.5, report.Overall.MeanDiff, 1e-9)
	assert.InDelta(t, 2.5, report.Overall.StdDevDiff, 1e-9)

	a, ok := report.Results.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 4, a.NumPoints)
	assert.InDelta(t, 13, a.Mean, 1e-9)
	assert.InDelta(t, 3, a.AvgDiff, 1e-9)

	_, ok = report.Results.Lookup("C")
	assert.False(t, ok)
}

func TestCompareParallelMatchesSequential(t *testing.T) {
	params := compareParams()
	seq, err := Compare(context.Background(), compareFixture(t), params)
	require.NoError(t, err)

	params.Workers = 4
	par, err := Compare(context.Background(), compareFixture(t), params)
	require.NoError(t, err)

	assert.Equal(t, seq.Overall, par.Overall)
	assert.Equal(t, seq.Results.Sorted(), par.Results.Sorted())
}

func TestCompareWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	loader := compareFixture(t)

	params := compareParams()
	params.OutputTable = filepath.Join(dir, "stats.csv")
	params.OutputVector = filepath.Join(dir, "augmented.gpkg")
	params.OutputPolicy = model.OutputNullUnmatched

	_, err := Compare(context.Background(), loader, params)
	require.NoError(t, err)

	f, err := os.Open(params.OutputTable)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "A", records[1][0])
	assert.Equal(t, "C", records[3][0])
	assert.Equal(t, "", records[3][1])

	layer, ok := loader.written[params.OutputVector].(*vector.Layer)
	require.True(t, ok)
	require.Len(t, layer.Buildings, 3)
	assert.InDelta(t, 3.0, layer.Buildings[0].Properties["height_diff"], 1e-9)
	assert.Nil(t, layer.Buildings[2].Properties["height_diff"])
}

func TestCompareEmptyAOIIsNotAnError(t *testing.T) {
	loader := compareFixture(t)
	loader.layers["buildings.gpkg"] = &vector.Layer{Name: "far", CRS: rd, Buildings: []*model.Building{
		building("far", 10, box(100, 100, 110, 110)),
	}}

	report, err := Compare(context.Background(), loader, compareParams())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Overall.Buildings)
	assert.Equal(t, 0.0, report.Overall.MeanDiff)
	assert.Equal(t, 0.0, report.Overall.StdDevDiff)
}

func TestCompareErrors(t *testing.T) {
	t.Run("missing raster", func(t *testing.T) {
		params := compareParams()
		params.Raster = "missing.tif"
		_, err := Compare(context.Background(), compareFixture(t), params)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("raster outside AOI", func(t *testing.T) {
		loader := compareFixture(t)
		loader.layers["aoi.gpkg"].Buildings[0] = building("0", 0, box(50, 50, 60, 60))
		_, err := Compare(context.Background(), loader, compareParams())
		assert.ErrorIs(t, err, raster.ErrNoOverlap)
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("empty building layer", func(t *testing.T) {
		loader := compareFixture(t)
		loader.layers["buildings.gpkg"] = &vector.Layer{Name: "empty", CRS: rd}
		_, err := Compare(context.Background(), loader, compareParams())
		assert.ErrorIs(t, err, vector.ErrEmptyLayer)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Compare(ctx, compareFixture(t), compareParams())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRasterize(t *testing.T) {
	loader := compareFixture(t)

	t.Run("layer extent", func(t *testing.T) {
		mask, err := Rasterize(context.Background(), loader, RasterizeParams{
			Vector:     "buildings.gpkg",
			Output:     "mask.tif",
			Resolution: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 4, mask.Width)
		assert.Equal(t, 4, mask.Height)
		assert.Equal(t, []float64{
			1, 1, 0, 0,
			1, 1, 0, 0,
			0, 0, 1, 1,
			0, 0, 1, 1,
		}, mask.Data)
		assert.Same(t, mask, loader.written["mask.tif"])
	})

	t.Run("AOI without features", func(t *testing.T) {
		loader.layers["far.gpkg"] = &vector.Layer{Name: "far", CRS: rd, Buildings: []*model.Building{
			building("0", 0, box(100, 100, 110, 110)),
		}}
		_, err := Rasterize(context.Background(), loader, RasterizeParams{
			Vector:     "buildings.gpkg",
			AOI:        "far.gpkg",
			Resolution: 1,
		})
		assert.ErrorIs(t, err, vector.ErrNoFeaturesInAOI)
	})

	t.Run("AOI crop", func(t *testing.T) {
		loader.layers["half.gpkg"] = &vector.Layer{Name: "half", CRS: rd, Buildings: []*model.Building{
			building("0", 0, box(0, 2, 4, 4)),
		}}
		mask, err := Rasterize(context.Background(), loader, RasterizeParams{
			Vector:     "buildings.gpkg",
			AOI:        "half.gpkg",
			Resolution: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 0, 0, 1, 1, 0, 0}, mask.Data)
	})
}

func TestReprojectVector(t *testing.T) {
	loader := newFakeLoader()
	loader.layers["in.geojson"] = &vector.Layer{Name: "in", CRS: model.WGS84, Buildings: []*model.Building{
		building("a", 0, box(0, 0, 1, 1)),
	}}
	out := filepath.Join(t.TempDir(), "out.geojson")

	layer, err := ReprojectVector(context.Background(), loader, ReprojectVectorParams{
		Input:  "in.geojson",
		Output: out,
		Target: model.WebMercator,
	})
	require.NoError(t, err)
	assert.True(t, layer.CRS.Equal(model.WebMercator))

	ring := layer.Buildings[0].Geometry.(orb.Polygon)[0]
	assert.InDelta(t, 111319.49, ring[1][0], 0.01)
	assert.FileExists(t, out)
}

func TestReprojectVectorKeepsPointsAndLines(t *testing.T) {
	loader := newFakeLoader()
	loader.layers["poi.geojson"] = &vector.Layer{Name: "poi", CRS: model.WGS84, Buildings: []*model.Building{
		building("p", 0, orb.Point{1, 0}),
		building("l", 0, orb.LineString{{0, 0}, {1, 0}}),
	}}
	out := filepath.Join(t.TempDir(), "poi.geojson")

	layer, err := ReprojectVector(context.Background(), loader, ReprojectVectorParams{
		Input:  "poi.geojson",
		Output: out,
		Target: model.WebMercator,
	})
	require.NoError(t, err)
	assert.True(t, loader.fields["poi.geojson"].AnyGeometry)
	require.Len(t, layer.Buildings, 2)
	assert.InDelta(t, 111319.49, layer.Buildings[0].Geometry.(orb.Point)[0], 0.01)
	assert.InDelta(t, 111319.49, layer.Buildings[1].Geometry.(orb.LineString)[1][0], 0.01)

	back, err := vector.ReadGeoJSON(out, vector.Fields{Height: vector.NoHeight, AnyGeometry: true})
	require.NoError(t, err)
	assert.Len(t, back.Buildings, 2)
}

func TestAlign(t *testing.T) {
	loader := newFakeLoader()
	src, err := raster.FromRows([][]float64{{1, 2}, {3, 4}}, raster.NewNorthUp(0, 2, 1, 1), rd)
	require.NoError(t, err)
	ref, err := raster.FromRows([][]float64{{0, 0}, {0, 0}}, raster.NewNorthUp(0, 2, 1, 1), rd)
	require.NoError(t, err)
	loader.rasters["src.tif"] = src
	loader.rasters["ref.tif"] = ref

	aligned, err := Align(context.Background(), loader, AlignParams{
		Source:     "src.tif",
		Reference:  "ref.tif",
		Output:     "aligned.tif",
		Resampling: raster.Nearest,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, aligned.Data)
	assert.Same(t, aligned, loader.written["aligned.tif"])
}

func TestDiff(t *testing.T) {
	loader := newFakeLoader()
	gt := raster.NewNorthUp(0, 2, 1, 1)
	a, err := raster.FromRows([][]float64{{5, 6}, {7, math.NaN()}}, gt, rd)
	require.NoError(t, err)
	b, err := raster.FromRows([][]float64{{1, 2}, {3, 4}}, gt, rd)
	require.NoError(t, err)
	loader.rasters["a.tif"] = a
	loader.rasters["b.tif"] = b

	diff, summary, err := Diff(context.Background(), loader, DiffParams{A: "a.tif", B: "b.tif", Output: "diff.tif"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Valid)
	assert.InDelta(t, 4, summary.Mean, 1e-9)
	assert.True(t, math.IsNaN(diff.At(1, 1)))

	other, err := raster.FromRows([][]float64{{1, 2, 3}}, gt, rd)
	require.NoError(t, err)
	loader.rasters["other.tif"] = other
	_, _, err = Diff(context.Background(), loader, DiffParams{A: "a.tif", B: "other.tif"})
	assert.ErrorIs(t, err, raster.ErrShapeMismatch)
}

func TestCanopy(t *testing.T) {
	loader := newFakeLoader()
	loader.clouds["tile.las"] = pointcloud.Cloud{Points: []pointcloud.Point{
		{X: 0.5, Y: 1.5, Z: 12, Class: pointcloud.ClassUnclassified, ReturnNumber: 1},
		{X: 1.5, Y: 0.5, Z: 3, Class: pointcloud.ClassGround, ReturnNumber: 1},
		{X: 1.5, Y: 1.5, Z: 9, Class: pointcloud.ClassBuilding, ReturnNumber: 1},
	}}
	bbox := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}

	t.Run("vegetation", func(t *testing.T) {
		grid, err := Canopy(context.Background(), loader, CanopyParams{
			Input:    "tile.las",
			Output:   "canopy.tif",
			CRS:      rd,
			BBox:     bbox,
			CellSize: 1,
			Filter:   pointcloud.DefaultVegetationFilter(orb.Bound{}),
		})
		require.NoError(t, err)
		assert.Equal(t, 12.0, grid.At(0, 0))
		assert.True(t, math.IsNaN(grid.At(0, 1)))
		assert.Contains(t, loader.written, "canopy.tif")
	})

	t.Run("surface", func(t *testing.T) {
		grid, err := Canopy(context.Background(), loader, CanopyParams{
			Input:    "tile.las",
			CRS:      rd,
			BBox:     bbox,
			CellSize: 1,
			Mode:     ModeSurface,
		})
		require.NoError(t, err)
		assert.True(t, math.IsNaN(grid.At(0, 0)))
		assert.Equal(t, 9.0, grid.At(0, 1))
		assert.Equal(t, 3.0, grid.At(1, 1))
	})

	t.Run("nothing selected", func(t *testing.T) {
		_, err := Canopy(context.Background(), loader, CanopyParams{
			Input:    "tile.las",
			BBox:     orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{12, 12}},
			CellSize: 1,
			Mode:     ModeSurface,
		})
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestParseCanopyMode(t *testing.T) {
	m, err := ParseCanopyMode("Surface")
	require.NoError(t, err)
	assert.Equal(t, ModeSurface, m)

	m, err = ParseCanopyMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeVegetation, m)

	_, err = ParseCanopyMode("forest")
	assert.ErrorIs(t, err, model.ErrValidation)
}
