// Package gdalio reads and writes rasters and vector layers through GDAL and
// provides GDAL backed coordinate transformations.
package gdalio

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"heightval/internal/model"

	"github.com/airbusgeo/godal"
)

var registerOnce sync.Once

// Init registers all GDAL drivers. It is safe to call more than once.
func Init() {
	registerOnce.Do(godal.RegisterAll)
}

// spatialRef builds a GDAL spatial reference for crs. The caller closes it.
func spatialRef(crs model.CRS) (*godal.SpatialRef, error) {
	if crs.EPSG != 0 {
		sr, err := godal.NewSpatialRefFromEPSG(crs.EPSG)
		if err != nil {
			return nil, fmt.Errorf("error creating SRS (EPSG:%d): %w", crs.EPSG, err)
		}
		return sr, nil
	}
	sr, err := godal.NewSpatialRef(crs.Definition)
	if err != nil {
		return nil, fmt.Errorf("error creating SRS (%s): %w", crs, err)
	}
	return sr, nil
}

// crsFromSpatialRef converts a GDAL spatial reference, preferring the EPSG
// code when GDAL can identify one
func crsFromSpatialRef(sr *godal.SpatialRef) model.CRS {
	if sr == nil {
		return model.CRS{}
	}
	if code, err := strconv.Atoi(sr.AuthorityCode("")); err == nil && code > 0 &&
		strings.EqualFold(sr.AuthorityName(""), "EPSG") {
		return model.CRSFromEPSG(code)
	}
	wkt, err := sr.WKT()
	if err != nil || wkt == "" {
		return model.CRS{}
	}
	return model.ParseCRS(wkt)
}

// vectorDriver picks the OGR driver from the output extension
func vectorDriver(path string) (godal.DriverName, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpkg":
		return godal.DriverName("GPKG"), nil
	case ".shp":
		return godal.DriverName("ESRI Shapefile"), nil
	case ".geojson", ".json":
		return godal.DriverName("GeoJSON"), nil
	case ".fgb":
		return godal.DriverName("FlatGeobuf"), nil
	}
	return "", fmt.Errorf("%w: no vector driver for %s", model.ErrValidation, path)
}
