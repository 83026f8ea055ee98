package gdalio

import (
	"fmt"
	"strconv"

	"heightval/internal/model"
	"heightval/internal/raster"

	"github.com/airbusgeo/godal"
)

// WarpOptions configures a file to file reprojection
type WarpOptions struct {
	Target     model.CRS
	Resampling raster.Resampling
	Resolution float64 // 0 keeps GDAL's suggested output resolution
}

// WarpFile reprojects a raster file into a GeoTIFF, the equivalent of
// gdalwarp -t_srs <crs> -r <method> -of GTiff
func WarpFile(src, dst string, opts WarpOptions) error {
	Init()

	ds, err := godal.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open raster %s: %w", src, err)
	}
	defer ds.Close()

	out, err := ds.Warp(dst, warpSwitches(opts))
	if err != nil {
		return fmt.Errorf("failed to warp %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close raster %s: %w", dst, err)
	}
	return nil
}

func warpSwitches(opts WarpOptions) []string {
	switches := []string{"-of", "GTiff", "-r", opts.Resampling.String()}
	if !opts.Target.IsZero() {
		switches = append(switches, "-t_srs", opts.Target.Definition)
	}
	if opts.Resolution > 0 {
		res := strconv.FormatFloat(opts.Resolution, 'f', -1, 64)
		switches = append(switches, "-tr", res, res)
	}
	return switches
}
