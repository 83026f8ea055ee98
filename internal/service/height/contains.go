package height

import (
	"math"

	"heightval/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// boundaryTolerance is the distance below which a point counts as lying on a ring
const boundaryTolerance = 1e-9

// Contains tests p against a polygon or multipolygon. Points on an outer or
// inner ring are decided by policy.
func Contains(geom orb.Geometry, p orb.Point, policy model.BoundaryPolicy) bool {
	if onBoundary(geom, p) {
		return policy == model.BoundaryInclusive
	}

	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}

func onBoundary(geom orb.Geometry, p orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		for _, r := range g {
			if onRing(r, p) {
				return true
			}
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			if onBoundary(poly, p) {
				return true
			}
		}
	}
	return false
}

func onRing(r orb.Ring, p orb.Point) bool {
	for i := 1; i < len(r); i++ {
		if onSegment(r[i-1], r[i], p) {
			return true
		}
	}
	return false
}

func onSegment(a, b, p orb.Point) bool {
	if p[0] < math.Min(a[0], b[0])-boundaryTolerance || p[0] > math.Max(a[0], b[0])+boundaryTolerance ||
		p[1] < math.Min(a[1], b[1])-boundaryTolerance || p[1] > math.Max(a[1], b[1])+boundaryTolerance {
		return false
	}

	length := math.Hypot(b[0]-a[0], b[1]-a[1])
	if length == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1]) <= boundaryTolerance
	}
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	return math.Abs(cross)/length <= boundaryTolerance
}
