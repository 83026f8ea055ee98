package pointcloud

import (
	"fmt"
	"math"

	"heightval/internal/model"
	"heightval/internal/raster"

	"github.com/paulmach/orb"
)

// GridMax bins points into square cells and keeps the highest Z per cell.
// The grid starts at the top-left corner of bbox; cells without points are
// NaN. An empty bbox is replaced by the extent of the points.
func GridMax(points []Point, bbox orb.Bound, cellSize float64, crs model.CRS) (*raster.Grid, error) {
	if !(cellSize > 0) {
		return nil, fmt.Errorf("%w: cell size must be positive, got %f", model.ErrValidation, cellSize)
	}
	if bbox.IsZero() {
		if len(points) == 0 {
			return nil, fmt.Errorf("%w: no points to grid", model.ErrValidation)
		}
		bbox = extent(points)
	}
	if bbox.Max[0] < bbox.Min[0] || bbox.Max[1] < bbox.Min[1] {
		return nil, fmt.Errorf("%w: [%f, %f, %f, %f]", model.ErrInvalidBounds, bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1])
	}

	width := max(1, int(math.Ceil((bbox.Max[0]-bbox.Min[0])/cellSize)))
	height := max(1, int(math.Ceil((bbox.Max[1]-bbox.Min[1])/cellSize)))
	grid := raster.NewGrid(raster.Spec{
		Width:     width,
		Height:    height,
		Transform: raster.NewNorthUp(bbox.Min[0], bbox.Max[1], cellSize, cellSize),
		CRS:       crs,
	}, math.NaN())

	for _, p := range points {
		if !bbox.Contains(p.XY()) {
			continue
		}
		col := min(width-1, int((p.X-bbox.Min[0])/cellSize))
		row := min(height-1, int((bbox.Max[1]-p.Y)/cellSize))
		if cur := grid.At(row, col); math.IsNaN(cur) || p.Z > cur {
			grid.Set(row, col, p.Z)
		}
	}
	return grid, nil
}

func extent(points []Point) orb.Bound {
	b := orb.Bound{Min: points[0].XY(), Max: points[0].XY()}
	for _, p := range points[1:] {
		b = b.Extend(p.XY())
	}
	return b
}
