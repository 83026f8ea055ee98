package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6371000.0

// HaversineDistance returns the great circle distance in meters between two
// points given in degrees
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	return angle.Radians() * earthRadiusMeters
}

// GeodesicExtent returns the width and height in meters of a lon/lat box,
// measured along its southern and western edges
func GeodesicExtent(b orb.Bound) (width, height float64) {
	width = HaversineDistance(b.Min[1], b.Min[0], b.Min[1], b.Max[0])
	height = HaversineDistance(b.Min[1], b.Min[0], b.Max[1], b.Min[0])
	return width, height
}
