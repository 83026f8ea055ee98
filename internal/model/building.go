package model

import (
	"github.com/paulmach/orb"
)

// Building is a reference footprint with a known height
type Building struct {
	ID         string                 // Unique identifier taken from the id attribute
	Height     float64                // Reference height in meters
	Geometry   orb.Geometry           // orb.Polygon or orb.MultiPolygon
	Properties map[string]interface{} // All source attributes, untouched
}

// Bound returns the bounding box of the footprint
func (b *Building) Bound() orb.Bound {
	return b.Geometry.Bound()
}

// IsAreal reports whether the geometry can contain points
func (b *Building) IsAreal() bool {
	switch g := b.Geometry.(type) {
	case orb.Polygon:
		return len(g) > 0 && len(g[0]) >= 4
	case orb.MultiPolygon:
		for _, p := range g {
			if len(p) > 0 && len(p[0]) >= 4 {
				return true
			}
		}
	}
	return false
}

// WithGeometry returns a shallow copy carrying a new geometry
func (b *Building) WithGeometry(g orb.Geometry) *Building {
	return &Building{
		ID:         b.ID,
		Height:     b.Height,
		Geometry:   g,
		Properties: b.Properties,
	}
}
