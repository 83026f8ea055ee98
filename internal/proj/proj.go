// Package proj moves coordinates between reference systems.
//
// Pure Go projections cover the identity case and EPSG:4326 <-> EPSG:3857.
// Everything else is delegated to a Factory backed by GDAL (see gdalio).
package proj

import (
	"errors"
	"fmt"

	"heightval/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// ErrUnsupported is returned by a Factory that cannot build a projector
// for the requested pair of reference systems
var ErrUnsupported = errors.New("unsupported coordinate transformation")

// Projector transforms a single point
type Projector interface {
	Project(p orb.Point) (orb.Point, error)
}

// ProjectorFunc adapts a plain function to a Projector
type ProjectorFunc func(p orb.Point) (orb.Point, error)

func (f ProjectorFunc) Project(p orb.Point) (orb.Point, error) { return f(p) }

// Factory builds projectors between two reference systems
type Factory interface {
	New(src, dst model.CRS) (Projector, error)
}

// FactoryFunc adapts a plain function to a Factory
type FactoryFunc func(src, dst model.CRS) (Projector, error)

func (f FactoryFunc) New(src, dst model.CRS) (Projector, error) { return f(src, dst) }

// Identity leaves points untouched
var Identity Projector = ProjectorFunc(func(p orb.Point) (orb.Point, error) { return p, nil })

// Builtin handles same-CRS pairs and the WGS84/Web Mercator pair without cgo
var Builtin Factory = FactoryFunc(builtin)

func builtin(src, dst model.CRS) (Projector, error) {
	if src.Equal(dst) {
		return Identity, nil
	}

	switch {
	case src.Equal(model.WGS84) && dst.Equal(model.WebMercator):
		return fromOrb(project.WGS84.ToMercator), nil
	case src.Equal(model.WebMercator) && dst.Equal(model.WGS84):
		return fromOrb(project.Mercator.ToWGS84), nil
	}

	return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupported, src, dst)
}

func fromOrb(p orb.Projection) Projector {
	return ProjectorFunc(func(pt orb.Point) (orb.Point, error) {
		return p(pt), nil
	})
}

// Chain tries each factory in order and returns the first projector built
func Chain(factories ...Factory) Factory {
	return FactoryFunc(func(src, dst model.CRS) (Projector, error) {
		var lastErr error
		for _, f := range factories {
			if f == nil {
				continue
			}
			p, err := f.New(src, dst)
			if err == nil {
				return p, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: %s -> %s", ErrUnsupported, src, dst)
		}
		return nil, lastErr
	})
}

// Geometry projects every coordinate of g. The first failing point aborts
// the transformation.
func Geometry(g orb.Geometry, p Projector) (orb.Geometry, error) {
	var projErr error
	out := project.Geometry(orb.Clone(g), func(pt orb.Point) orb.Point {
		if projErr != nil {
			return pt
		}
		res, err := p.Project(pt)
		if err != nil {
			projErr = fmt.Errorf("failed to project point (%f, %f): %w", pt[0], pt[1], err)
			return pt
		}
		return res
	})
	if projErr != nil {
		return nil, projErr
	}
	return out, nil
}

// Bound projects a box by densifying its edges, which keeps the result
// correct for curved transformations
func Bound(b orb.Bound, p Projector, densify int) (orb.Bound, error) {
	if densify < 1 {
		densify = 1
	}

	dx := (b.Max[0] - b.Min[0]) / float64(densify)
	dy := (b.Max[1] - b.Min[1]) / float64(densify)

	var (
		out   orb.Bound
		first = true
	)
	add := func(x, y float64) error {
		res, err := p.Project(orb.Point{x, y})
		if err != nil {
			return err
		}
		if first {
			out = res.Bound()
			first = false
			return nil
		}
		out = out.Extend(res)
		return nil
	}

	for i := 0; i <= densify; i++ {
		x := b.Min[0] + float64(i)*dx
		y := b.Min[1] + float64(i)*dy
		if i == densify {
			x, y = b.Max[0], b.Max[1]
		}
		for _, pt := range [][2]float64{
			{x, b.Min[1]}, {x, b.Max[1]},
			{b.Min[0], y}, {b.Max[0], y},
		} {
			if err := add(pt[0], pt[1]); err != nil {
				return orb.Bound{}, err
			}
		}
	}

	return out, nil
}
