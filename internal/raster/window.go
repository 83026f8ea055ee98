package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// snapTolerance absorbs floating point noise when a box edge sits on a cell edge
const snapTolerance = 1e-9

// Window is a rectangular block of cells
type Window struct {
	ColOff int
	RowOff int
	Width  int
	Height int
}

// IsEmpty reports whether the window covers no cells
func (w Window) IsEmpty() bool {
	return w.Width <= 0 || w.Height <= 0
}

// WindowFromBounds computes the window covering b. The window is expanded
// outward to whole cells and clamped to the grid; an empty result is
// ErrNoOverlap.
func WindowFromBounds(spec Spec, b orb.Bound) (Window, error) {
	gt := spec.Transform
	if !gt.IsNorthUp() {
		return Window{}, fmt.Errorf("%w: geotransform %v", ErrNotNorthUp, gt)
	}
	if gt[1] == 0 || gt[5] == 0 {
		return Window{}, fmt.Errorf("invalid geotransform: pixel width (%f) or height (%f) is zero", gt[1], gt[5])
	}

	c0 := (b.Min[0] - gt[0]) / gt[1]
	c1 := (b.Max[0] - gt[0]) / gt[1]
	r0 := (b.Max[1] - gt[3]) / gt[5]
	r1 := (b.Min[1] - gt[3]) / gt[5]

	colStart := clamp(int(math.Floor(math.Min(c0, c1)+snapTolerance)), 0, spec.Width)
	colStop := clamp(int(math.Ceil(math.Max(c0, c1)-snapTolerance)), 0, spec.Width)
	rowStart := clamp(int(math.Floor(math.Min(r0, r1)+snapTolerance)), 0, spec.Height)
	rowStop := clamp(int(math.Ceil(math.Max(r0, r1)-snapTolerance)), 0, spec.Height)

	w := Window{ColOff: colStart, RowOff: rowStart, Width: colStop - colStart, Height: rowStop - rowStart}
	if w.IsEmpty() {
		return Window{}, fmt.Errorf("%w: box [%f, %f, %f, %f], raster %v",
			ErrNoOverlap, b.Min[0], b.Min[1], b.Max[0], b.Max[1], spec.Bounds())
	}
	return w, nil
}

// Window copies the cells of w into a new grid with an adjusted transform
func (g *Grid) Window(w Window) (*Grid, error) {
	if w.IsEmpty() || w.ColOff < 0 || w.RowOff < 0 ||
		w.ColOff+w.Width > g.Width || w.RowOff+w.Height > g.Height {
		return nil, fmt.Errorf("%w: window %+v outside %dx%d grid", ErrNoOverlap, w, g.Width, g.Height)
	}

	data := make([]float64, 0, w.Width*w.Height)
	for row := w.RowOff; row < w.RowOff+w.Height; row++ {
		start := row*g.Width + w.ColOff
		data = append(data, g.Data[start:start+w.Width]...)
	}

	return &Grid{
		Data:      data,
		Width:     w.Width,
		Height:    w.Height,
		Transform: g.Transform.Offset(w.ColOff, w.RowOff),
		CRS:       g.CRS,
		NoData:    g.NoData,
		HasNoData: g.HasNoData,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
