package raster

import (
	"fmt"

	"heightval/internal/model"
	"heightval/internal/proj"

	"go.uber.org/zap"
)

// Crop restricts src to bbox, expressed in bbox's CRS. When the CRS already
// matches only a window is cut; otherwise the grid is reprojected with
// nearest neighbour first and windowed in the reprojected transform space.
func Crop(src *Grid, bbox model.BoundingBox, factory proj.Factory) (*Grid, error) {
	if src.CRS.IsZero() {
		return nil, fmt.Errorf("%w: raster has no coordinate reference system", model.ErrValidation)
	}

	if src.CRS.Equal(bbox.CRS) {
		zap.S().Debugf("Raster CRS %s matches target CRS, no reprojection needed", src.CRS)
		return cropWindow(src, bbox)
	}

	zap.S().Infof("Reprojecting raster from %s to %s", src.CRS, bbox.CRS)
	return reprojectAndCrop(src, bbox, factory)
}

func reprojectAndCrop(src *Grid, bbox model.BoundingBox, factory proj.Factory) (*Grid, error) {
	reprojected, err := Reproject(src, bbox.CRS, Nearest, factory)
	if err != nil {
		return nil, err
	}
	return cropWindow(reprojected, bbox)
}

func cropWindow(src *Grid, bbox model.BoundingBox) (*Grid, error) {
	w, err := WindowFromBounds(src.Spec(), bbox.Bound)
	if err != nil {
		return nil, err
	}
	return src.Window(w)
}
