package gdalio

import (
	"fmt"
	"sync"

	"heightval/internal/model"
	"heightval/internal/proj"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
)

// Factory builds projectors backed by GDAL/PROJ transformations. Transforms
// stay open until Close.
type Factory struct {
	mu         sync.Mutex
	transforms []*godal.Transform
}

// NewFactory registers GDAL drivers and returns an empty factory
func NewFactory() *Factory {
	Init()
	return &Factory{}
}

// New implements proj.Factory
func (f *Factory) New(src, dst model.CRS) (proj.Projector, error) {
	if src.Equal(dst) {
		return proj.Identity, nil
	}

	srcSR, err := spatialRef(src)
	if err != nil {
		return nil, err
	}
	defer srcSR.Close()

	dstSR, err := spatialRef(dst)
	if err != nil {
		return nil, err
	}
	defer dstSR.Close()

	tr, err := godal.NewTransform(srcSR, dstSR)
	if err != nil {
		return nil, fmt.Errorf("error creating coordinate transformation from %s to %s: %w", src, dst, err)
	}

	f.mu.Lock()
	f.transforms = append(f.transforms, tr)
	f.mu.Unlock()

	return &transformProjector{tr: tr}, nil
}

// Close releases all transforms created by the factory
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.transforms {
		tr.Close()
	}
	f.transforms = nil
}

type transformProjector struct {
	mu sync.Mutex
	tr *godal.Transform
}

func (p *transformProjector) Project(pt orb.Point) (orb.Point, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	x := []float64{pt[0]}
	y := []float64{pt[1]}
	ok := make([]bool, 1)
	if err := p.tr.TransformEx(x, y, nil, ok); err != nil {
		return pt, fmt.Errorf("error during coordinate transformation: %w", err)
	}
	if !ok[0] {
		return pt, fmt.Errorf("transformation failed for coordinates (%.8f, %.8f)", pt[0], pt[1])
	}
	return orb.Point{x[0], y[0]}, nil
}
