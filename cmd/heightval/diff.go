package main

import (
	"fmt"

	"heightval/internal/pipeline"

	"github.com/spf13/cobra"
)

func newDiffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Subtract raster b from raster a",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.required("a", "b"); err != nil {
				return err
			}
			_, summary, err := pipeline.Diff(cmd.Context(), a.loader, pipeline.DiffParams{
				A:         a.v.GetString("a"),
				B:         a.v.GetString("b"),
				AOI:       a.v.GetString("aoi"),
				Output:    a.v.GetString("output"),
				RasterCRS: a.cfg.RasterCRSFallback(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cells: %d\nmin: %.4f\nmax: %.4f\nmean: %.4f\nstddev: %.4f\n",
				summary.Valid, summary.Min, summary.Max, summary.Mean, summary.StdDev)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("a", "", "minuend raster")
	f.String("b", "", "subtrahend raster")
	f.String("aoi", "", "optional area of interest applied to both rasters")
	f.String("output", "", "optional difference GeoTIFF")
	return cmd
}
