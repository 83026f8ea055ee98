package main

import (
	"fmt"

	"heightval/internal/config"
	"heightval/internal/pipeline"
	"heightval/internal/vector"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCompareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare DSM heights inside building footprints with reference heights",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if err := cfg.Validate(); err != nil {
				return err
			}
			boundary, _ := cfg.BoundaryPolicy()
			policy, _ := cfg.OutputPolicyValue()

			report, err := pipeline.Compare(cmd.Context(), a.loader, pipeline.CompareParams{
				RunID:        a.runID,
				AOI:          cfg.AOI,
				Raster:       cfg.Raster,
				Vector:       cfg.Vector,
				OutputTable:  cfg.OutputTable,
				OutputVector: cfg.OutputVector,
				Fields:       vector.Fields{ID: cfg.IDField, Height: cfg.HeightField},
				RasterCRS:    cfg.RasterCRSFallback(),
				Boundary:     boundary,
				OutputPolicy: policy,
				Workers:      cfg.Workers,
			})
			if err != nil {
				return err
			}

			zap.L().Info("Result",
				zap.Int("buildings", report.Overall.Buildings),
				zap.Int("matched", report.Overall.Matched))
			fmt.Fprintf(cmd.OutOrStdout(), "Mean difference: %.4f\nStandard deviation: %.4f\n",
				report.Overall.MeanDiff, report.Overall.StdDevDiff)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("aoi", "", "area of interest vector file")
	f.String("raster", "", "elevation raster (DSM)")
	f.String("vector", "", "reference building footprints")
	f.String("output-table", "", "per-building table: .csv, .sqlite/.db or a postgres:// DSN")
	f.String("output-vector", "", "footprints with result attributes: .geojson, .gpkg, .shp")
	f.String("id-field", config.DefaultIDField, "building identifier attribute")
	f.String("height-field", config.DefaultHeightField, "reference height attribute")
	f.String("boundary", config.DefaultBoundary, "cell centres on a footprint edge: exclusive or inclusive")
	f.String("output-policy", config.DefaultOutputPolicy, "buildings without cells: omit or null")
	f.Int("workers", 0, "buildings processed in parallel, 0 or 1 runs sequentially")
	return cmd
}
