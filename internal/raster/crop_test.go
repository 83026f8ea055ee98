package raster

import (
	"testing"

	"heightval/internal/model"
	"heightval/internal/proj"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFromBounds(t *testing.T) {
	spec := Spec{Width: 4, Height: 3, Transform: NewNorthUp(100, 203, 1, 1), CRS: rd}

	tests := []struct {
		name  string
		bound orb.Bound
		want  Window
	}{
		{
			name:  "exact cell edges",
			bound: orb.Bound{Min: orb.Point{101, 200}, Max: orb.Point{103, 202}},
			want:  Window{ColOff: 1, RowOff: 1, Width: 2, Height: 2},
		},
		{
			name:  "partial cells are expanded outward",
			bound: orb.Bound{Min: orb.Point{101.2, 200.5}, Max: orb.Point{102.1, 201.9}},
			want:  Window{ColOff: 1, RowOff: 1, Width: 2, Height: 2},
		},
		{
			name:  "clamped to the raster",
			bound: orb.Bound{Min: orb.Point{50, 150}, Max: orb.Point{102, 250}},
			want:  Window{ColOff: 0, RowOff: 0, Width: 2, Height: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WindowFromBounds(spec, tt.bound)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowFromBoundsRejectsRotation(t *testing.T) {
	spec := Spec{Width: 4, Height: 3, Transform: GeoTransform{0, 1, 0.1, 0, 0, -1}}
	_, err := WindowFromBounds(spec, orb.Bound{Max: orb.Point{1, 1}})
	assert.ErrorIs(t, err, ErrNotNorthUp)
}

func TestCropSameCRSWindowsOnly(t *testing.T) {
	g := testGrid(t)
	bbox, err := model.NewBoundingBox(101, 200, 103, 202, rd)
	require.NoError(t, err)

	cropped, err := Crop(g, bbox, proj.Builtin)
	require.NoError(t, err)

	assert.Equal(t, 2, cropped.Width)
	assert.Equal(t, 2, cropped.Height)
	assert.Equal(t, []float64{6, 7, 10, 11}, cropped.Data)
	assert.Equal(t, NewNorthUp(101, 202, 1, 1), cropped.Transform)
}

func TestCropReprojectionBranchIsIdentityForSameCRS(t *testing.T) {
	g := testGrid(t)
	g.NoData, g.HasNoData = -9999, true
	bbox, err := model.NewBoundingBox(100.5, 200.2, 103.4, 202.8, rd)
	require.NoError(t, err)

	direct, err := cropWindow(g, bbox)
	require.NoError(t, err)

	viaReprojection, err := reprojectAndCrop(g, bbox, proj.Builtin)
	require.NoError(t, err)

	if diff := cmp.Diff(direct, viaReprojection); diff != "" {
		t.Errorf("reprojection to the same CRS changed the crop (-direct +reprojected):\n%s", diff)
	}
}

func TestCropNoOverlap(t *testing.T) {
	g := testGrid(t)
	bbox, err := model.NewBoundingBox(500, 500, 600, 600, rd)
	require.NoError(t, err)

	_, err = Crop(g, bbox, proj.Builtin)
	assert.ErrorIs(t, err, ErrNoOverlap)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCropTouchingEdgeIsNoOverlap(t *testing.T) {
	g := testGrid(t)
	bbox, err := model.NewBoundingBox(104, 200, 110, 203, rd)
	require.NoError(t, err)

	_, err = Crop(g, bbox, proj.Builtin)
	assert.ErrorIs(t, err, ErrNoOverlap)
}

func TestCropWithoutCRS(t *testing.T) {
	g := testGrid(t)
	g.CRS = model.CRS{}
	bbox, err := model.NewBoundingBox(101, 200, 103, 202, rd)
	require.NoError(t, err)

	_, err = Crop(g, bbox, proj.Builtin)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCropReprojectsToTargetCRS(t *testing.T) {
	// 10x10 grid of 0.001 degree cells near Amsterdam
	rows := make([][]float64, 10)
	for r := range rows {
		rows[r] = make([]float64, 10)
		for c := range rows[r] {
			rows[r][c] = float64(r*10 + c)
		}
	}
	g, err := FromRows(rows, NewNorthUp(4.90, 52.38, 0.001, 0.001), model.WGS84)
	require.NoError(t, err)

	mercator, err := proj.Builtin.New(model.WGS84, model.WebMercator)
	require.NoError(t, err)
	full, err := proj.Bound(g.Bounds(), mercator, 20)
	require.NoError(t, err)

	bbox, err := model.BoundingBoxFromBound(full, model.WebMercator)
	require.NoError(t, err)

	cropped, err := Crop(g, bbox, proj.Builtin)
	require.NoError(t, err)
	assert.True(t, cropped.CRS.Equal(model.WebMercator))
	assert.Greater(t, cropped.Width, 0)
	assert.Greater(t, cropped.Height, 0)

	// nearest neighbour only ever copies source values
	source := make(map[float64]bool, len(g.Data))
	for _, v := range g.Data {
		source[v] = true
	}
	for _, v := range cropped.Data {
		if g.IsNoData(v) {
			continue
		}
		assert.True(t, source[v], "value %v not present in source", v)
	}
}
