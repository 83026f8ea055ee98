package vector

import (
	"fmt"
	"math"

	"heightval/internal/model"
	"heightval/internal/proj"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// Reproject returns a copy of the layer in dst
func Reproject(layer *Layer, dst model.CRS, factory proj.Factory) (*Layer, error) {
	if layer.CRS.Equal(dst) {
		return layer, nil
	}
	if factory == nil {
		factory = proj.Builtin
	}

	p, err := factory.New(layer.CRS, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create transformation %s -> %s: %w", layer.CRS, dst, err)
	}

	out := &Layer{Name: layer.Name, CRS: dst, Buildings: make([]*model.Building, 0, len(layer.Buildings))}
	for _, b := range layer.Buildings {
		g, err := proj.Geometry(b.Geometry, p)
		if err != nil {
			return nil, fmt.Errorf("failed to reproject building %s: %w", b.ID, err)
		}
		out.Buildings = append(out.Buildings, b.WithGeometry(g))
	}
	return out, nil
}

// Clip intersects every footprint with the box. Partially covered footprints
// are cut; footprints left empty are dropped.
func Clip(layer *Layer, b orb.Bound) *Layer {
	out := &Layer{Name: layer.Name, CRS: layer.CRS}
	for _, bld := range layer.Buildings {
		if bld.Geometry == nil || !bld.Bound().Intersects(b) {
			continue
		}
		clipped := clip.Geometry(b, orb.Clone(bld.Geometry))
		if clipped == nil {
			continue
		}
		nb := bld.WithGeometry(clipped)
		if !nb.IsAreal() || math.Abs(planar.Area(clipped)) == 0 {
			continue
		}
		out.Buildings = append(out.Buildings, nb)
	}
	return out
}

// Prepare brings a building layer into the AOI: the layer is reprojected to
// the AOI CRS first and clipped to its box afterwards. An AOI holding no
// building is not an error; the returned layer is simply empty.
func Prepare(layer *Layer, aoi model.BoundingBox, factory proj.Factory) (*Layer, error) {
	if len(layer.Buildings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyLayer, layer.Name)
	}

	reprojected, err := Reproject(layer, aoi.CRS, factory)
	if err != nil {
		return nil, err
	}

	clipped := Clip(reprojected, aoi.Bound)
	zap.L().Info("Vector layer clipped to AOI",
		zap.String("layer", layer.Name),
		zap.Int("input", len(layer.Buildings)),
		zap.Int("kept", len(clipped.Buildings)))

	if len(clipped.Buildings) == 0 {
		zap.L().Warn("No buildings inside the AOI", zap.String("layer", layer.Name), zap.Stringer("aoi", aoi))
	}
	return clipped, nil
}
