// Package pointcloud filters classified LiDAR points and grids them into
// height rasters.
package pointcloud

import "github.com/paulmach/orb"

// ASPRS classification codes used by the extractors
const (
	ClassUnclassified uint8 = 1
	ClassGround       uint8 = 2
	ClassBuilding     uint8 = 6
)

// Point is a single LiDAR return. Red and NIR are only meaningful when the
// cloud has a NIR channel.
type Point struct {
	X, Y, Z      float64
	Class        uint8
	ReturnNumber uint8
	NumReturns   uint8
	Red          uint16
	NIR          uint16
}

// XY returns the planar position of the point
func (p Point) XY() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Cloud is a set of points. HasNIR marks clouds whose points carry Red and
// NIR, which enables the NDVI stage.
type Cloud struct {
	Points []Point
	HasNIR bool
}
