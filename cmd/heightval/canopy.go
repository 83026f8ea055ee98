package main

import (
	"fmt"

	"heightval/internal/model"
	"heightval/internal/pipeline"
	"heightval/internal/pointcloud"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
)

func newCanopyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canopy",
		Short: "Grid the highest vegetation or surface return of a LAS point cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.required("input", "output"); err != nil {
				return err
			}
			mode, err := pipeline.ParseCanopyMode(a.v.GetString("mode"))
			if err != nil {
				return err
			}
			values, err := cmd.Flags().GetFloat64Slice("bbox")
			if err != nil {
				return err
			}
			bbox, err := parseBBox(values)
			if err != nil {
				return err
			}

			filter := pointcloud.DefaultVegetationFilter(bbox)
			filter.MinHeight = a.v.GetFloat64("min-height")
			filter.NDVIThreshold = a.v.GetFloat64("ndvi-threshold")
			filter.FirstReturnOnly = a.v.GetBool("first-return")

			_, err = pipeline.Canopy(cmd.Context(), a.loader, pipeline.CanopyParams{
				Input:    a.v.GetString("input"),
				Output:   a.v.GetString("output"),
				CRS:      model.ParseCRS(a.v.GetString("crs")),
				BBox:     bbox,
				CellSize: a.v.GetFloat64("cell-size"),
				Mode:     mode,
				Filter:   filter,
			})
			return err
		},
	}

	f := cmd.Flags()
	f.String("input", "", "LAS point cloud")
	f.String("output", "", "output GeoTIFF")
	f.String("crs", "EPSG:28992", "CRS of the point cloud")
	f.Float64Slice("bbox", nil, "minx,miny,maxx,maxy; the whole cloud when empty")
	f.Float64("cell-size", 1, "cell size in CRS units")
	f.String("mode", "vegetation", "vegetation (canopy) or surface (ground and buildings)")
	f.Float64("min-height", 2.0, "lowest vegetation return kept")
	f.Float64("ndvi-threshold", 0.35, "NDVI a vegetation return must exceed, when NIR is present")
	f.Bool("first-return", false, "keep first returns only")
	return cmd
}

func parseBBox(v []float64) (orb.Bound, error) {
	if len(v) == 0 {
		return orb.Bound{}, nil
	}
	if len(v) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: bbox needs 4 values, got %d", model.ErrValidation, len(v))
	}
	b, err := model.NewBoundingBox(v[0], v[1], v[2], v[3], model.CRS{})
	if err != nil {
		return orb.Bound{}, err
	}
	return b.Bound, nil
}
