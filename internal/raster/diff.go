package raster

import (
	"fmt"
	"math"
)

// Difference returns a - b cell by cell. Both grids must share dimensions and
// transform. Cells where either side has no data become NaN.
func Difference(a, b *Grid) (*Grid, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("%w: %dx%d %v vs %dx%d %v",
			ErrShapeMismatch, a.Width, a.Height, a.Transform, b.Width, b.Height, b.Transform)
	}
	if !a.CRS.IsZero() && !b.CRS.IsZero() && !a.CRS.Equal(b.CRS) {
		return nil, fmt.Errorf("%w: CRS %s vs %s", ErrShapeMismatch, a.CRS, b.CRS)
	}

	out := NewGrid(a.Spec(), 0)
	for i := range a.Data {
		va, vb := a.Data[i], b.Data[i]
		if a.IsNoData(va) || b.IsNoData(vb) {
			out.Data[i] = math.NaN()
			continue
		}
		out.Data[i] = va - vb
	}
	return out, nil
}
