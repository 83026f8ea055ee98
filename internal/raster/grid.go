// Package raster holds in-memory elevation grids and the windowing,
// reprojection and resampling operations the validation tools run on them.
package raster

import (
	"fmt"
	"math"

	"heightval/internal/model"

	"github.com/paulmach/orb"
)

// GeoTransform is the GDAL six coefficient affine transform:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
type GeoTransform [6]float64

// NewNorthUp builds the transform of a north-up grid whose top-left corner is
// (originX, originY)
func NewNorthUp(originX, originY, pixelWidth, pixelHeight float64) GeoTransform {
	return GeoTransform{originX, pixelWidth, 0, originY, 0, -pixelHeight}
}

// Apply maps fractional pixel coordinates to CRS coordinates
func (gt GeoTransform) Apply(col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return
}

// Invert maps CRS coordinates back to fractional pixel coordinates
func (gt GeoTransform) Invert(x, y float64) (col, row float64, err error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, fmt.Errorf("invalid geotransform matrix %v", gt)
	}
	col = ((x-gt[0])*gt[5] - (y-gt[3])*gt[2]) / det
	row = ((y-gt[3])*gt[1] - (x-gt[0])*gt[4]) / det
	return col, row, nil
}

// IsNorthUp reports whether the grid has no rotation or skew
func (gt GeoTransform) IsNorthUp() bool {
	return gt[2] == 0 && gt[4] == 0
}

// Offset returns the transform of a window starting at (col, row)
func (gt GeoTransform) Offset(col, row int) GeoTransform {
	x, y := gt.Apply(float64(col), float64(row))
	return GeoTransform{x, gt[1], gt[2], y, gt[4], gt[5]}
}

// AlmostEqual compares two transforms coefficient by coefficient
func (gt GeoTransform) AlmostEqual(other GeoTransform, tol float64) bool {
	for i := range gt {
		if math.Abs(gt[i]-other[i]) > tol {
			return false
		}
	}
	return true
}

// Spec describes the shape and georeferencing of a grid without its data
type Spec struct {
	Width     int
	Height    int
	Transform GeoTransform
	CRS       model.CRS
}

// Bounds returns the outer extent of the grid
func (s Spec) Bounds() orb.Bound {
	b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for _, c := range [][2]float64{{0, 0}, {float64(s.Width), 0}, {0, float64(s.Height)}, {float64(s.Width), float64(s.Height)}} {
		x, y := s.Transform.Apply(c[0], c[1])
		b = b.Extend(orb.Point{x, y})
	}
	return b
}

// Grid is a single band raster fully held in memory, row-major
type Grid struct {
	Data      []float64
	Width     int
	Height    int
	Transform GeoTransform
	CRS       model.CRS
	NoData    float64
	HasNoData bool
}

// NewGrid allocates a grid filled with fill
func NewGrid(spec Spec, fill float64) *Grid {
	data := make([]float64, spec.Width*spec.Height)
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	return &Grid{
		Data:      data,
		Width:     spec.Width,
		Height:    spec.Height,
		Transform: spec.Transform,
		CRS:       spec.CRS,
	}
}

// FromRows builds a grid from a row slice, mostly for tests and small inputs
func FromRows(rows [][]float64, gt GeoTransform, crs model.CRS) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", model.ErrValidation)
	}
	width := len(rows[0])
	data := make([]float64, 0, width*len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", model.ErrValidation, i, len(row), width)
		}
		data = append(data, row...)
	}
	return &Grid{Data: data, Width: width, Height: len(rows), Transform: gt, CRS: crs}, nil
}

// Spec returns the grid's shape and georeferencing
func (g *Grid) Spec() Spec {
	return Spec{Width: g.Width, Height: g.Height, Transform: g.Transform, CRS: g.CRS}
}

// At returns the value at (row, col)
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Width+col]
}

// Set stores a value at (row, col)
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Width+col] = v
}

// CellCenter returns the CRS coordinate of the centre of a cell
func (g *Grid) CellCenter(row, col int) orb.Point {
	x, y := g.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
	return orb.Point{x, y}
}

// Bounds returns the outer extent of the grid
func (g *Grid) Bounds() orb.Bound {
	return g.Spec().Bounds()
}

// IsNoData reports whether v carries no measurement: NaN, infinite or equal
// to the nodata sentinel
func (g *Grid) IsNoData(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return true
	}
	return g.HasNoData && v == g.NoData
}

// Fill is the value used for cells without data: the sentinel when set, NaN otherwise
func (g *Grid) Fill() float64 {
	if g.HasNoData {
		return g.NoData
	}
	return math.NaN()
}

// SameShape reports whether two grids have equal dimensions and transforms
func (g *Grid) SameShape(other *Grid) bool {
	return g.Width == other.Width && g.Height == other.Height &&
		g.Transform.AlmostEqual(other.Transform, 1e-9)
}
