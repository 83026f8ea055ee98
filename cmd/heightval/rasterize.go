package main

import (
	"heightval/internal/pipeline"

	"github.com/spf13/cobra"
)

func newRasterizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rasterize",
		Short: "Burn building footprints into a uint8 mask",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.required("vector", "output"); err != nil {
				return err
			}
			_, err := pipeline.Rasterize(cmd.Context(), a.loader, pipeline.RasterizeParams{
				Vector:     a.v.GetString("vector"),
				AOI:        a.v.GetString("aoi"),
				Output:     a.v.GetString("output"),
				Resolution: a.v.GetFloat64("resolution"),
				AllTouched: a.v.GetBool("all-touched"),
			})
			return err
		},
	}

	f := cmd.Flags()
	f.String("vector", "", "footprints to burn")
	f.String("aoi", "", "optional area of interest; the mask covers it")
	f.String("output", "", "output GeoTIFF")
	f.Float64("resolution", 1, "cell size in CRS units")
	f.Bool("all-touched", true, "burn every cell touched by a footprint")
	return cmd
}
