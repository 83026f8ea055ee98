package raster

import (
	"fmt"
	"math"

	"heightval/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// Burn values of a rasterized mask
const (
	MaskBackground = 0.0
	MaskBurn       = 1.0
)

// RasterizeOptions controls mask creation
type RasterizeOptions struct {
	Resolution float64
	// AllTouched burns every cell touched by a polygon instead of only the
	// cells whose centre falls inside it
	AllTouched bool
}

// Rasterize burns polygons into a mask covering bbox. The top-left corner of
// the grid is (minX, maxY); partial cells at the right and bottom are dropped.
// The background value doubles as nodata.
func Rasterize(geoms []orb.Geometry, bbox model.BoundingBox, opts RasterizeOptions) (*Grid, error) {
	if opts.Resolution <= 0 {
		return nil, fmt.Errorf("%w: resolution must be positive, got %f", model.ErrValidation, opts.Resolution)
	}

	spec := Spec{
		Width:     int(bbox.Width() / opts.Resolution),
		Height:    int(bbox.Height() / opts.Resolution),
		Transform: NewNorthUp(bbox.MinX(), bbox.MaxY(), opts.Resolution, opts.Resolution),
		CRS:       bbox.CRS,
	}
	if spec.Width == 0 || spec.Height == 0 {
		return nil, fmt.Errorf("%w: resolution %f larger than the box %s", model.ErrValidation, opts.Resolution, bbox)
	}

	out := NewGrid(spec, MaskBackground)
	out.NoData, out.HasNoData = MaskBackground, true

	for _, g := range geoms {
		if g == nil {
			continue
		}
		burn(out, g, opts.AllTouched)
	}
	return out, nil
}

func burn(g *Grid, geom orb.Geometry, allTouched bool) {
	b := geom.Bound()
	res := g.Transform[1]

	colStart := clamp(int(math.Floor((b.Min[0]-g.Transform[0])/res)), 0, g.Width)
	colStop := clamp(int(math.Ceil((b.Max[0]-g.Transform[0])/res)), 0, g.Width)
	rowStart := clamp(int(math.Floor((g.Transform[3]-b.Max[1])/res)), 0, g.Height)
	rowStop := clamp(int(math.Ceil((g.Transform[3]-b.Min[1])/res)), 0, g.Height)

	for row := rowStart; row < rowStop; row++ {
		for col := colStart; col < colStop; col++ {
			if g.At(row, col) == MaskBurn {
				continue
			}
			var hit bool
			if allTouched {
				hit = touches(geom, cellBound(g, row, col))
			} else {
				hit = containsPoint(geom, g.CellCenter(row, col))
			}
			if hit {
				g.Set(row, col, MaskBurn)
			}
		}
	}
}

func cellBound(g *Grid, row, col int) orb.Bound {
	x0, y0 := g.Transform.Apply(float64(col), float64(row))
	x1, y1 := g.Transform.Apply(float64(col+1), float64(row+1))
	return orb.Bound{
		Min: orb.Point{math.Min(x0, x1), math.Min(y0, y1)},
		Max: orb.Point{math.Max(x0, x1), math.Max(y0, y1)},
	}
}

func containsPoint(geom orb.Geometry, p orb.Point) bool {
	switch t := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(t, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(t, p)
	}
	return false
}

// touches reports whether the polygon shares any area or edge with the cell
func touches(geom orb.Geometry, cell orb.Bound) bool {
	if !geom.Bound().Intersects(cell) {
		return false
	}
	clipped := clip.Geometry(cell, orb.Clone(geom))
	if clipped == nil {
		return false
	}
	switch t := clipped.(type) {
	case orb.Polygon:
		return len(t) > 0 && len(t[0]) > 0
	case orb.MultiPolygon:
		for _, p := range t {
			if len(p) > 0 && len(p[0]) > 0 {
				return true
			}
		}
	}
	return false
}
