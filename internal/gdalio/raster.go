package gdalio

import (
	"fmt"

	"heightval/internal/model"
	"heightval/internal/raster"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// ReadRaster loads the first band of a raster fully into memory as float64.
// fallback is used when the file carries no CRS.
func ReadRaster(path string, fallback model.CRS) (*raster.Grid, error) {
	Init()

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("error getting geotransform from [%s]: %w", path, err)
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("no raster bands found in file [%s]", path)
	}
	band := bands[0]

	structure := ds.Structure()
	g := raster.NewGrid(raster.Spec{
		Width:     structure.SizeX,
		Height:    structure.SizeY,
		Transform: raster.GeoTransform(gt),
	}, 0)

	if err := band.Read(0, 0, g.Data, g.Width, g.Height); err != nil {
		return nil, fmt.Errorf("error reading band 1 of [%s]: %w", path, err)
	}
	if nodata, ok := band.NoData(); ok {
		g.NoData, g.HasNoData = nodata, true
	}

	sr := ds.SpatialRef()
	if sr != nil {
		g.CRS = crsFromSpatialRef(sr)
		sr.Close()
	}
	if g.CRS.IsZero() && !fallback.IsZero() {
		zap.L().Warn("Raster has no CRS, using fallback", zap.String("path", path), zap.Stringer("crs", fallback))
		g.CRS = fallback
	}

	zap.L().Debug("Raster loaded",
		zap.String("path", path),
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.Stringer("crs", g.CRS))
	return g, nil
}

// WriteGeoTIFF writes a single band Float64 GeoTIFF. NaN cells are written
// as the grid's nodata sentinel when it has one.
func WriteGeoTIFF(path string, g *raster.Grid) error {
	return writeGeoTIFF(path, g, godal.Float64)
}

// WriteMask writes a mask grid as a single band Byte GeoTIFF
func WriteMask(path string, g *raster.Grid) error {
	return writeGeoTIFF(path, g, godal.Byte)
}

func writeGeoTIFF(path string, g *raster.Grid, dtype godal.DataType) error {
	Init()

	ds, err := godal.Create(godal.GTiff, path, 1, dtype, g.Width, g.Height, godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return fmt.Errorf("failed to create raster %s: %w", path, err)
	}

	if err := ds.SetGeoTransform([6]float64(g.Transform)); err != nil {
		ds.Close()
		return fmt.Errorf("failed to set geotransform on %s: %w", path, err)
	}
	if !g.CRS.IsZero() {
		sr, err := spatialRef(g.CRS)
		if err != nil {
			ds.Close()
			return err
		}
		err = ds.SetSpatialRef(sr)
		sr.Close()
		if err != nil {
			ds.Close()
			return fmt.Errorf("failed to set spatial reference on %s: %w", path, err)
		}
	}

	band := ds.Bands()[0]
	data := g.Data
	if g.HasNoData {
		if err := band.SetNoData(g.NoData); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set nodata on %s: %w", path, err)
		}
		data = withSentinel(g)
	}
	if err := band.Write(0, 0, data, g.Width, g.Height); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write band of %s: %w", path, err)
	}

	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close raster %s: %w", path, err)
	}
	return nil
}

// withSentinel replaces non finite cells by the nodata value
func withSentinel(g *raster.Grid) []float64 {
	out := make([]float64, len(g.Data))
	for i, v := range g.Data {
		if g.IsNoData(v) {
			out[i] = g.NoData
			continue
		}
		out[i] = v
	}
	return out
}
