// Package pipeline runs the validation tasks end to end: it loads inputs,
// chains the processing stages and writes results.
package pipeline

import (
	"fmt"

	"heightval/internal/model"
	"heightval/internal/pointcloud"
	"heightval/internal/proj"
	"heightval/internal/raster"
	"heightval/internal/vector"
)

// Loader performs the file I/O of the tasks. ReadLayer decodes any supported
// vector format.
type Loader interface {
	ReadRaster(path string, fallback model.CRS) (*raster.Grid, error)
	WriteRaster(path string, g *raster.Grid) error
	WriteMask(path string, g *raster.Grid) error

	vector.Reader
	WriteLayer(path string, layer *vector.Layer) error

	ReadPointCloud(path string) (pointcloud.Cloud, error)

	// Projections builds coordinate transformations between reference systems
	Projections() proj.Factory
}

func readAOI(loader Loader, path string) (model.BoundingBox, error) {
	layer, err := loader.ReadLayer(path, vector.Fields{Height: vector.NoHeight})
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("failed to read AOI %s: %w", path, err)
	}
	return vector.AOIFromLayer(layer)
}
