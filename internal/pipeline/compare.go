package pipeline

import (
	"context"
	"fmt"
	"time"

	"heightval/internal/model"
	"heightval/internal/output"
	"heightval/internal/raster"
	"heightval/internal/service/height"
	"heightval/internal/util"
	"heightval/internal/vector"

	"go.uber.org/zap"
)

// CompareParams are the inputs of a building height comparison
type CompareParams struct {
	RunID  string
	AOI    string
	Raster string
	Vector string

	// Empty paths skip the corresponding output
	OutputTable  string
	OutputVector string

	Fields       vector.Fields
	RasterCRS    model.CRS
	Boundary     model.BoundaryPolicy
	OutputPolicy model.OutputPolicy
	Workers      int
}

// Report summarises a comparison run
type Report struct {
	RunID     string
	AOI       model.BoundingBox
	Raster    raster.Summary
	Buildings *vector.Layer
	Results   *height.Results
	Overall   model.OverallResult
}

// Compare crops the elevation raster and the building layer to the AOI,
// computes per-building statistics and reduces them to the overall error
func Compare(ctx context.Context, loader Loader, params CompareParams) (*Report, error) {
	if params.RunID == "" {
		params.RunID = util.ShortUUID()
	}
	log := zap.L().With(zap.String("run", params.RunID))
	startTime := time.Now()
	factory := loader.Projections()

	// Step 1: area of interest
	log.Info("Step 1: Resolving area of interest", zap.String("path", params.AOI))
	stepTime := time.Now()
	aoi, err := readAOI(loader, params.AOI)
	if err != nil {
		return nil, err
	}
	logExtent(log, aoi)
	log.Info("Step 1 completed", zap.Duration("elapsed", time.Since(stepTime)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 2: raster
	log.Info("Step 2: Cropping elevation raster", zap.String("path", params.Raster))
	stepTime = time.Now()
	src, err := loader.ReadRaster(params.Raster, params.RasterCRS)
	if err != nil {
		return nil, err
	}
	grid, err := raster.Crop(src, aoi, factory)
	if err != nil {
		return nil, fmt.Errorf("failed to crop raster %s: %w", params.Raster, err)
	}
	summary := grid.Summarize()
	log.Info("Step 2 completed",
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height),
		zap.Int("valid_cells", summary.Valid),
		zap.Duration("elapsed", time.Since(stepTime)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: buildings
	log.Info("Step 3: Preparing building footprints", zap.String("path", params.Vector))
	stepTime = time.Now()
	layer, err := loader.ReadLayer(params.Vector, params.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector %s: %w", params.Vector, err)
	}
	buildings, err := vector.Prepare(layer, aoi, factory)
	if err != nil {
		return nil, err
	}
	log.Info("Step 3 completed",
		zap.Int("buildings", len(buildings.Buildings)),
		zap.Duration("elapsed", time.Since(stepTime)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: cell centres and spatial index
	log.Info("Step 4: Indexing cell centres")
	stepTime = time.Now()
	agg := height.NewAggregator(grid, height.Options{Boundary: params.Boundary, Workers: params.Workers})
	log.Info("Step 4 completed", zap.Int("cells", agg.Cells()), zap.Duration("elapsed", time.Since(stepTime)))

	// Step 5: per-building statistics
	log.Info("Step 5: Computing building statistics", zap.Stringer("boundary", params.Boundary))
	stepTime = time.Now()
	results, err := agg.Run(ctx, buildings.Buildings)
	if err != nil {
		return nil, err
	}
	overall := results.Overall()
	log.Info("Step 5 completed",
		zap.Int("matched", overall.Matched),
		zap.Int("unmatched", overall.Unmatched()),
		zap.Duration("elapsed", time.Since(stepTime)))

	// Step 6: outputs
	if params.OutputTable != "" || params.OutputVector != "" {
		log.Info("Step 6: Writing outputs")
		stepTime = time.Now()
		run := output.Run{
			ID:      params.RunID,
			Raster:  params.Raster,
			Vector:  params.Vector,
			AOI:     params.AOI,
			Overall: overall,
		}
		if err := output.Write(params.OutputTable, params.OutputVector, run, buildings, results, params.OutputPolicy, loader.WriteLayer); err != nil {
			return nil, err
		}
		log.Info("Step 6 completed", zap.Duration("elapsed", time.Since(stepTime)))
	}

	log.Info("Comparison finished",
		zap.Float64("mean_diff", overall.MeanDiff),
		zap.Float64("stddev_diff", overall.StdDevDiff),
		zap.Duration("total", time.Since(startTime)))

	return &Report{
		RunID:     params.RunID,
		AOI:       aoi,
		Raster:    summary,
		Buildings: buildings,
		Results:   results,
		Overall:   overall,
	}, nil
}

func logExtent(log *zap.Logger, aoi model.BoundingBox) {
	fields := []zap.Field{zap.Stringer("bbox", aoi)}
	if aoi.CRS.IsGeographic() {
		w, h := util.GeodesicExtent(aoi.Bound)
		fields = append(fields, zap.Float64("width_m", w), zap.Float64("height_m", h))
	} else {
		fields = append(fields, zap.Float64("width", aoi.Width()), zap.Float64("height", aoi.Height()))
	}
	log.Info("Area of interest", fields...)
}
