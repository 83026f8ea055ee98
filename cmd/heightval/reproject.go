package main

import (
	"fmt"

	"heightval/internal/gdalio"
	"heightval/internal/model"
	"heightval/internal/pipeline"
	"heightval/internal/raster"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReprojectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reproject",
		Short: "Reproject a raster or vector layer",
	}
	cmd.AddCommand(newReprojectRasterCmd(a), newReprojectVectorCmd(a))
	return cmd
}

func targetCRS(a *app) (model.CRS, error) {
	if err := a.required("input", "output", "target-crs"); err != nil {
		return model.CRS{}, err
	}
	return model.ParseCRS(a.v.GetString("target-crs")), nil
}

func newReprojectRasterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raster",
		Short: "Warp a raster into another CRS",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetCRS(a)
			if err != nil {
				return err
			}
			method, err := raster.ParseResampling(a.v.GetString("resampling"))
			if err != nil {
				return err
			}
			input, output := a.v.GetString("input"), a.v.GetString("output")
			res := a.v.GetFloat64("resolution")

			switch engine := a.v.GetString("engine"); engine {
			case "gdal":
				if err := gdalio.WarpFile(input, output, gdalio.WarpOptions{
					Target:     target,
					Resampling: method,
					Resolution: res,
				}); err != nil {
					return err
				}
				zap.L().Info("Raster warped", zap.String("input", input), zap.String("output", output), zap.Stringer("to", target))
				return nil
			case "go":
				_, err := pipeline.ReprojectRaster(cmd.Context(), a.loader, pipeline.ReprojectRasterParams{
					Input:      input,
					Output:     output,
					Target:     target,
					SourceCRS:  a.cfg.RasterCRSFallback(),
					Resampling: method,
					Resolution: res,
				})
				return err
			default:
				return fmt.Errorf("%w: unknown engine %q, expected gdal or go", model.ErrValidation, engine)
			}
		},
	}

	f := cmd.Flags()
	f.String("input", "", "source raster")
	f.String("output", "", "output GeoTIFF")
	f.String("target-crs", "", "target CRS, e.g. EPSG:4326")
	f.String("resampling", "nearest", "nearest or bilinear")
	f.Float64("resolution", 0, "output pixel size, 0 keeps the suggested one")
	f.String("engine", "gdal", "gdal (gdalwarp) or go (in-process)")
	return cmd
}

func newReprojectVectorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Reproject every feature of a vector layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetCRS(a)
			if err != nil {
				return err
			}
			_, err = pipeline.ReprojectVector(cmd.Context(), a.loader, pipeline.ReprojectVectorParams{
				Input:  a.v.GetString("input"),
				Output: a.v.GetString("output"),
				Target: target,
			})
			return err
		},
	}

	f := cmd.Flags()
	f.String("input", "", "source layer")
	f.String("output", "", "output layer: .geojson, .gpkg, .shp")
	f.String("target-crs", "", "target CRS, e.g. EPSG:4326")
	return cmd
}
