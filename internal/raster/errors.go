package raster

import "heightval/internal/model"

var (
	// ErrNoOverlap is returned when a requested box or grid does not intersect the raster extent
	ErrNoOverlap = model.ValidationError("bounding box does not intersect the raster extent")

	// ErrShapeMismatch is returned when two rasters do not share dimensions and transform
	ErrShapeMismatch = model.ValidationError("raster shapes or transforms do not match")

	// ErrNotNorthUp is returned for rotated or skewed grids where windowing is not supported
	ErrNotNorthUp = model.ValidationError("raster is rotated or skewed")
)
