package pipeline

import (
	"context"
	"fmt"
	"strings"

	"heightval/internal/model"
	"heightval/internal/pointcloud"
	"heightval/internal/raster"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// CanopyMode selects which points are gridded
type CanopyMode int

const (
	// ModeVegetation keeps vegetation returns and grids canopy heights
	ModeVegetation CanopyMode = iota
	// ModeSurface keeps ground and building returns and grids surface heights
	ModeSurface
)

// ParseCanopyMode accepts "vegetation" and "surface"
func ParseCanopyMode(s string) (CanopyMode, error) {
	switch strings.ToLower(s) {
	case "", "vegetation":
		return ModeVegetation, nil
	case "surface":
		return ModeSurface, nil
	}
	return 0, fmt.Errorf("%w: unknown canopy mode %q", model.ErrValidation, s)
}

func (m CanopyMode) String() string {
	if m == ModeSurface {
		return "surface"
	}
	return "vegetation"
}

// CanopyParams configures the point cloud extraction
type CanopyParams struct {
	Input    string
	Output   string
	CRS      model.CRS
	BBox     orb.Bound // zero means the whole cloud
	CellSize float64
	Mode     CanopyMode
	Filter   pointcloud.VegetationFilter
}

// Canopy grids the highest selected return per cell
func Canopy(ctx context.Context, loader Loader, params CanopyParams) (*raster.Grid, error) {
	cloud, err := loader.ReadPointCloud(params.Input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var points []pointcloud.Point
	switch params.Mode {
	case ModeSurface:
		points = pointcloud.ByClass(pointcloud.InBound(cloud.Points, params.BBox),
			pointcloud.ClassGround, pointcloud.ClassBuilding)
	default:
		f := params.Filter
		f.BBox = params.BBox
		points = f.Apply(cloud)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no %s points selected from %s", model.ErrValidation, params.Mode, params.Input)
	}

	grid, err := pointcloud.GridMax(points, params.BBox, params.CellSize, params.CRS)
	if err != nil {
		return nil, err
	}
	if params.Output != "" {
		if err := loader.WriteRaster(params.Output, grid); err != nil {
			return nil, err
		}
	}

	zap.L().Info("Canopy raster built",
		zap.Stringer("mode", params.Mode),
		zap.Int("input_points", len(cloud.Points)),
		zap.Int("selected_points", len(points)),
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height))
	return grid, nil
}
