package index

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// pointTolerance pads each degenerate point rectangle so that points lying
// exactly on a query edge are still returned as candidates
const pointTolerance = 1e-9

// pad is pointTolerance, widened to a few ulps for large coordinates where
// 1e-9 is lost to rounding
func pad(v float64) float64 {
	a := math.Abs(v)
	return math.Max(pointTolerance, 4*(math.Nextafter(a, math.Inf(1))-a))
}

func padded(lower, upper rtreego.Point) (rtreego.Rect, error) {
	lo, hi := make(rtreego.Point, len(lower)), make(rtreego.Point, len(upper))
	for i := range lower {
		lo[i] = lower[i] - pad(lower[i])
		hi[i] = upper[i] + pad(upper[i])
	}
	return rtreego.NewRectFromPoints(lo, hi)
}

// cellSpatial represents a cell centre in the R-tree
type cellSpatial struct {
	idx  int
	rect rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface
func (c *cellSpatial) Bounds() rtreego.Rect {
	return c.rect
}

// CellIndex answers "which cells may lie inside this box" queries
type CellIndex struct {
	cells []CellPoint
	tree  *rtreego.Rtree
}

// NewCellIndex bulk loads the cells into an R-tree
func NewCellIndex(cells []CellPoint) *CellIndex {
	objs := make([]rtreego.Spatial, 0, len(cells))
	for i, c := range cells {
		p := rtreego.Point{c.Point[0], c.Point[1]}
		rect, err := padded(p, p)
		if err != nil {
			continue
		}
		objs = append(objs, &cellSpatial{idx: i, rect: rect})
	}

	return &CellIndex{
		cells: cells,
		tree:  rtreego.NewTree(2, 25, 50, objs...), // 2D index with min 25, max 50 entries per node
	}
}

// Len returns the number of indexed cells
func (ci *CellIndex) Len() int {
	return len(ci.cells)
}

// Cell returns the cell stored at idx
func (ci *CellIndex) Cell(idx int) CellPoint {
	return ci.cells[idx]
}

// Query returns the indices of all cells whose centre falls inside b,
// boundary included. The result is a superset of the cells inside any
// geometry bounded by b.
func (ci *CellIndex) Query(b orb.Bound) []int {
	if len(ci.cells) == 0 {
		return nil
	}

	rect, err := padded(rtreego.Point{b.Min[0], b.Min[1]}, rtreego.Point{b.Max[0], b.Max[1]})
	if err != nil {
		return nil
	}

	hits := ci.tree.SearchIntersect(rect)
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		cs := h.(*cellSpatial)
		if b.Contains(ci.cells[cs.idx].Point) {
			out = append(out, cs.idx)
		}
	}
	return out
}
