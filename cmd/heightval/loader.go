package main

import (
	"heightval/internal/gdalio"
	"heightval/internal/model"
	"heightval/internal/pointcloud"
	"heightval/internal/proj"
	"heightval/internal/raster"
	"heightval/internal/vector"
)

// gdalLoader reads and writes files through GDAL, except for formats the
// vector package decodes itself
type gdalLoader struct {
	factory *gdalio.Factory
}

func newGDALLoader() *gdalLoader {
	return &gdalLoader{factory: gdalio.NewFactory()}
}

func (l *gdalLoader) ReadRaster(path string, fallback model.CRS) (*raster.Grid, error) {
	return gdalio.ReadRaster(path, fallback)
}

func (l *gdalLoader) WriteRaster(path string, g *raster.Grid) error {
	return gdalio.WriteGeoTIFF(path, g)
}

func (l *gdalLoader) WriteMask(path string, g *raster.Grid) error {
	return gdalio.WriteMask(path, g)
}

func (l *gdalLoader) ReadLayer(path string, fields vector.Fields) (*vector.Layer, error) {
	return vector.Open(path, fields, gdalio.Reader)
}

func (l *gdalLoader) WriteLayer(path string, layer *vector.Layer) error {
	return gdalio.WriteLayer(path, layer)
}

func (l *gdalLoader) ReadPointCloud(path string) (pointcloud.Cloud, error) {
	return pointcloud.ReadLAS(path)
}

// Projections prefers the pure Go transformations and falls back to PROJ
func (l *gdalLoader) Projections() proj.Factory {
	return proj.Chain(proj.Builtin, l.factory)
}

func (l *gdalLoader) Close() {
	l.factory.Close()
}
