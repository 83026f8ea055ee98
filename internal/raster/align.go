package raster

import (
	"fmt"

	"heightval/internal/proj"
)

// AlignNoData marks cells of an aligned grid that the source does not cover
const AlignNoData = -9999.0

// Align resamples src onto ref's grid. The extents must intersect. Bilinear is
// the usual method here since the two grids rarely share a native resolution.
func Align(src, ref *Grid, method Resampling, factory proj.Factory) (*Grid, error) {
	if factory == nil {
		factory = proj.Builtin
	}

	forward, err := factory.New(src.CRS, ref.CRS)
	if err != nil {
		return nil, fmt.Errorf("failed to create transformation %s -> %s: %w", src.CRS, ref.CRS, err)
	}
	inverse, err := factory.New(ref.CRS, src.CRS)
	if err != nil {
		return nil, fmt.Errorf("failed to create transformation %s -> %s: %w", ref.CRS, src.CRS, err)
	}

	srcBounds, err := proj.Bound(src.Bounds(), forward, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to project source extent: %w", err)
	}
	refBounds := ref.Bounds()
	if srcBounds.Min[0] >= refBounds.Max[0] || srcBounds.Max[0] <= refBounds.Min[0] ||
		srcBounds.Min[1] >= refBounds.Max[1] || srcBounds.Max[1] <= refBounds.Min[1] {
		return nil, fmt.Errorf("%w: no overlapping area between source and target rasters", ErrNoOverlap)
	}

	// cells outside the source get a sentinel rather than NaN so the result
	// can be written as a GeoTIFF with a nodata value
	withSentinel := *src
	if !withSentinel.HasNoData {
		withSentinel.NoData, withSentinel.HasNoData = AlignNoData, true
	}

	aligned, err := Resample(&withSentinel, ref.Spec(), method, inverse)
	if err != nil {
		return nil, err
	}
	return aligned, nil
}
