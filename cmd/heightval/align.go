package main

import (
	"heightval/internal/pipeline"
	"heightval/internal/raster"

	"github.com/spf13/cobra"
)

func newAlignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Resample a raster onto the grid of a reference raster",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.required("source", "reference", "output"); err != nil {
				return err
			}
			method, err := raster.ParseResampling(a.v.GetString("resampling"))
			if err != nil {
				return err
			}
			_, err = pipeline.Align(cmd.Context(), a.loader, pipeline.AlignParams{
				Source:     a.v.GetString("source"),
				Reference:  a.v.GetString("reference"),
				Output:     a.v.GetString("output"),
				RasterCRS:  a.cfg.RasterCRSFallback(),
				Resampling: method,
				Resolution: a.v.GetFloat64("resolution"),
			})
			return err
		},
	}

	f := cmd.Flags()
	f.String("source", "", "raster to resample")
	f.String("reference", "", "raster whose grid is used")
	f.String("output", "", "output GeoTIFF")
	f.String("resampling", "bilinear", "nearest or bilinear")
	f.Float64("resolution", 0, "optional final pixel size")
	return cmd
}
