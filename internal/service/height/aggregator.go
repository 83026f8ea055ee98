// Package height compares the elevation cells falling inside each building
// footprint with the building's reference height.
package height

import (
	"context"
	"fmt"
	"time"

	"heightval/internal/index"
	"heightval/internal/model"
	"heightval/internal/raster"
	"heightval/internal/service/storage"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options controls how cells are matched and how many buildings are
// processed at once
type Options struct {
	Boundary model.BoundaryPolicy
	Workers  int // <= 1 runs sequentially
}

// Aggregator holds the cell centres of one grid and their spatial index.
// It is read-only after construction and safe for concurrent use.
type Aggregator struct {
	grid  *raster.Grid
	index *index.CellIndex
	opts  Options
}

// NewAggregator extracts the cell centres of grid and indexes them
func NewAggregator(grid *raster.Grid, opts Options) *Aggregator {
	start := time.Now()
	cells := index.ExtractCells(grid)
	idx := index.NewCellIndex(cells)
	zap.L().Debug("Cell index built",
		zap.Int("cells", idx.Len()),
		zap.Duration("elapsed", time.Since(start)))

	return &Aggregator{grid: grid, index: idx, opts: opts}
}

// Cells returns the number of indexed cell centres
func (a *Aggregator) Cells() int {
	return a.index.Len()
}

// Values returns the valid elevations of all cells whose centre lies inside
// the footprint
func (a *Aggregator) Values(b *model.Building) []float64 {
	if b.Geometry == nil {
		return nil
	}

	candidates := a.index.Query(b.Bound())
	values := make([]float64, 0, len(candidates))
	for _, i := range candidates {
		c := a.index.Cell(i)
		if a.grid.IsNoData(c.Value) {
			continue
		}
		if Contains(b.Geometry, c.Point, a.opts.Boundary) {
			values = append(values, c.Value)
		}
	}
	return values
}

// Stats computes the statistics of one building. The second result is false
// when no valid cell falls inside the footprint.
func (a *Aggregator) Stats(b *model.Building) (model.BuildingStats, bool) {
	values := a.Values(b)
	if len(values) == 0 {
		return model.BuildingStats{}, false
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	return model.BuildingStats{
		BuildingID: b.ID,
		Max:        floats.Max(values),
		Min:        floats.Min(values),
		Mean:       mean,
		StdDev:     std,
		NumPoints:  len(values),
		AvgDiff:    mean - b.Height,
	}, true
}

// Run computes the statistics of every building. Buildings without valid
// cells are logged and left out of the results.
func (a *Aggregator) Run(ctx context.Context, buildings []*model.Building) (*Results, error) {
	var store storage.Storage[string, model.BuildingStats]
	if a.opts.Workers > 1 {
		store = storage.NewShardedMemoryStorage[string, model.BuildingStats](a.opts.Workers*2, nil)
	} else {
		store = storage.NewMemoryStorage[string, model.BuildingStats]()
	}

	collect := func(b *model.Building) {
		s, ok := a.Stats(b)
		if !ok {
			zap.L().Debug("Building has no valid cells, skipping", zap.String("id", b.ID))
			return
		}
		store.Set(b.ID, s)
	}

	start := time.Now()
	if a.opts.Workers > 1 {
		p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(a.opts.Workers)
		for _, b := range buildings {
			b := b
			p.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				collect(b)
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, fmt.Errorf("aggregation cancelled: %w", err)
		}
	} else {
		for _, b := range buildings {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("aggregation cancelled: %w", err)
			}
			collect(b)
		}
	}

	zap.L().Info("Per-building statistics computed",
		zap.Int("buildings", len(buildings)),
		zap.Int("matched", store.Count()),
		zap.Int("workers", max(a.opts.Workers, 1)),
		zap.Duration("elapsed", time.Since(start)))

	return &Results{store: store, buildings: len(buildings)}, nil
}
