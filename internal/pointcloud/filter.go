package pointcloud

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// VegetationFilter selects canopy points. Stages run in order: bounding box,
// classification, minimum height, NDVI when the cloud has a NIR channel and
// finally first returns only.
type VegetationFilter struct {
	BBox            orb.Bound
	Class           uint8
	MinHeight       float64
	NDVIThreshold   float64
	FirstReturnOnly bool
}

// DefaultVegetationFilter returns the filter with the usual thresholds for
// unclassified vegetation returns
func DefaultVegetationFilter(bbox orb.Bound) VegetationFilter {
	return VegetationFilter{
		BBox:          bbox,
		Class:         ClassUnclassified,
		MinHeight:     2.0,
		NDVIThreshold: 0.35,
	}
}

// Apply returns the points that pass every stage
func (f VegetationFilter) Apply(cloud Cloud) []Point {
	log := zap.L().With(zap.String("stage", "vegetation"))

	points := InBound(cloud.Points, f.BBox)
	log.Debug("bbox filter", zap.Int("points", len(points)))

	points = ByClass(points, f.Class)
	log.Debug("class filter", zap.Uint8("class", f.Class), zap.Int("points", len(points)))

	points = filterPoints(points, func(p Point) bool { return p.Z >= f.MinHeight })
	log.Debug("height filter", zap.Float64("min_height", f.MinHeight), zap.Int("points", len(points)))

	if cloud.HasNIR {
		points = filterPoints(points, func(p Point) bool { return NDVI(p.Red, p.NIR) > f.NDVIThreshold })
		log.Debug("ndvi filter", zap.Float64("threshold", f.NDVIThreshold), zap.Int("points", len(points)))
	} else {
		log.Info("point cloud carries no NIR channel, NDVI filter skipped")
	}

	if f.FirstReturnOnly {
		points = filterPoints(points, func(p Point) bool { return p.ReturnNumber == 1 })
		log.Debug("first return filter", zap.Int("points", len(points)))
	}
	return points
}

// NDVI computes (nir - red) / (nir + red), 0 when both are 0
func NDVI(red, nir uint16) float64 {
	sum := float64(nir) + float64(red)
	if sum == 0 {
		return 0
	}
	v := (float64(nir) - float64(red)) / sum
	return math.Max(-1, math.Min(1, v))
}

// InBound keeps points inside b, edges included. An empty bound keeps all.
func InBound(points []Point, b orb.Bound) []Point {
	if b.IsZero() {
		return points
	}
	return filterPoints(points, func(p Point) bool { return b.Contains(p.XY()) })
}

// ByClass keeps points with one of the given classification codes
func ByClass(points []Point, classes ...uint8) []Point {
	return filterPoints(points, func(p Point) bool { return slices.Contains(classes, p.Class) })
}

func filterPoints(points []Point, keep func(Point) bool) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
