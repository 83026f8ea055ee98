package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BoundingBox is an axis aligned box in a specific CRS
type BoundingBox struct {
	Bound orb.Bound
	CRS   CRS
}

// NewBoundingBox validates min < max on both axes
func NewBoundingBox(minX, minY, maxX, maxY float64, crs CRS) (BoundingBox, error) {
	if !(minX < maxX) || !(minY < maxY) {
		return BoundingBox{}, fmt.Errorf("%w: [%f, %f, %f, %f]", ErrInvalidBounds, minX, minY, maxX, maxY)
	}
	return BoundingBox{
		Bound: orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}},
		CRS:   crs,
	}, nil
}

// BoundingBoxFromBound wraps an orb.Bound after validating it
func BoundingBoxFromBound(b orb.Bound, crs CRS) (BoundingBox, error) {
	return NewBoundingBox(b.Min[0], b.Min[1], b.Max[0], b.Max[1], crs)
}

func (b BoundingBox) MinX() float64 { return b.Bound.Min[0] }
func (b BoundingBox) MinY() float64 { return b.Bound.Min[1] }
func (b BoundingBox) MaxX() float64 { return b.Bound.Max[0] }
func (b BoundingBox) MaxY() float64 { return b.Bound.Max[1] }

// Width of the box in CRS units
func (b BoundingBox) Width() float64 { return b.MaxX() - b.MinX() }

// Height of the box in CRS units
func (b BoundingBox) Height() float64 { return b.MaxY() - b.MinY() }

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.6f, %.6f, %.6f, %.6f] %s", b.MinX(), b.MinY(), b.MaxX(), b.MaxY(), b.CRS)
}
