// Package index extracts cell centre points from an elevation grid and
// serves bounding box queries over them.
package index

import (
	"heightval/internal/raster"

	"github.com/paulmach/orb"
)

// CellPoint is the centre of one raster cell with its elevation
type CellPoint struct {
	Point orb.Point
	Value float64
}

// ExtractCells returns one point per cell in row-major order. NoData cells
// are included; filtering them is left to the aggregator.
func ExtractCells(g *raster.Grid) []CellPoint {
	cells := make([]CellPoint, 0, g.Width*g.Height)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			cells = append(cells, CellPoint{
				Point: g.CellCenter(row, col),
				Value: g.At(row, col),
			})
		}
	}
	return cells
}
