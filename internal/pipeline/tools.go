package pipeline

import (
	"context"
	"fmt"
	"time"

	"heightval/internal/model"
	"heightval/internal/output"
	"heightval/internal/raster"
	"heightval/internal/vector"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// RasterizeParams configures the building mask
type RasterizeParams struct {
	Vector     string
	AOI        string // optional
	Output     string
	Resolution float64
	AllTouched bool
}

// Rasterize burns the footprints of a vector layer into a uint8 mask. With an
// AOI the footprints are reprojected to its CRS and only those intersecting
// its box are kept; the mask then covers the AOI. Without one the mask covers
// the layer extent.
func Rasterize(ctx context.Context, loader Loader, params RasterizeParams) (*raster.Grid, error) {
	start := time.Now()
	layer, err := loader.ReadLayer(params.Vector, vector.Fields{Height: vector.NoHeight})
	if err != nil {
		return nil, fmt.Errorf("failed to read vector %s: %w", params.Vector, err)
	}
	if len(layer.Buildings) == 0 {
		return nil, fmt.Errorf("%w: %s", vector.ErrEmptyLayer, params.Vector)
	}

	var bbox model.BoundingBox
	if params.AOI != "" {
		bbox, err = readAOI(loader, params.AOI)
		if err != nil {
			return nil, err
		}
		layer, err = vector.Reproject(layer, bbox.CRS, loader.Projections())
		if err != nil {
			return nil, err
		}
		layer = intersecting(layer, bbox.Bound)
		if len(layer.Buildings) == 0 {
			return nil, fmt.Errorf("%w: %s", vector.ErrNoFeaturesInAOI, bbox)
		}
	} else {
		b, _ := layer.Bound()
		bbox, err = model.BoundingBoxFromBound(b, layer.CRS)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask, err := raster.Rasterize(layer.Geometries(), bbox, raster.RasterizeOptions{
		Resolution: params.Resolution,
		AllTouched: params.AllTouched,
	})
	if err != nil {
		return nil, err
	}
	if params.Output != "" {
		if err := loader.WriteMask(params.Output, mask); err != nil {
			return nil, err
		}
	}

	zap.L().Info("Rasterization finished",
		zap.Int("features", len(layer.Buildings)),
		zap.Int("width", mask.Width),
		zap.Int("height", mask.Height),
		zap.Bool("all_touched", params.AllTouched),
		zap.String("output", params.Output),
		zap.Duration("elapsed", time.Since(start)))
	return mask, nil
}

func intersecting(layer *vector.Layer, b orb.Bound) *vector.Layer {
	out := &vector.Layer{Name: layer.Name, CRS: layer.CRS}
	for _, bld := range layer.Buildings {
		if bld.Bound().Intersects(b) {
			out.Buildings = append(out.Buildings, bld)
		}
	}
	return out
}

// ReprojectRasterParams configures an in-process raster reprojection
type ReprojectRasterParams struct {
	Input      string
	Output     string
	Target     model.CRS
	SourceCRS  model.CRS // assumed when the input has none
	Resampling raster.Resampling
	Resolution float64 // 0 keeps the suggested resolution
}

// ReprojectRaster warps a whole raster into the target CRS
func ReprojectRaster(ctx context.Context, loader Loader, params ReprojectRasterParams) (*raster.Grid, error) {
	start := time.Now()
	src, err := loader.ReadRaster(params.Input, params.SourceCRS)
	if err != nil {
		return nil, err
	}
	out, err := raster.Reproject(src, params.Target, params.Resampling, loader.Projections())
	if err != nil {
		return nil, fmt.Errorf("failed to reproject %s: %w", params.Input, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Resolution > 0 {
		out, err = raster.ResampleToResolution(out, params.Resolution, params.Resampling)
		if err != nil {
			return nil, err
		}
	}
	if err := loader.WriteRaster(params.Output, out); err != nil {
		return nil, err
	}

	zap.L().Info("Raster reprojected",
		zap.String("input", params.Input),
		zap.Stringer("from", src.CRS),
		zap.Stringer("to", params.Target),
		zap.Stringer("resampling", params.Resampling),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// ReprojectVectorParams configures a vector reprojection
type ReprojectVectorParams struct {
	Input  string
	Output string
	Target model.CRS
}

// ReprojectVector transforms every feature of a layer into the target CRS,
// whatever its geometry type. Attributes are carried over unchanged.
func ReprojectVector(ctx context.Context, loader Loader, params ReprojectVectorParams) (*vector.Layer, error) {
	layer, err := loader.ReadLayer(params.Input, vector.Fields{Height: vector.NoHeight, AnyGeometry: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read vector %s: %w", params.Input, err)
	}
	if len(layer.Buildings) == 0 {
		return nil, fmt.Errorf("%w: %s", vector.ErrEmptyLayer, params.Input)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := vector.Reproject(layer, params.Target, loader.Projections())
	if err != nil {
		return nil, err
	}
	if err := output.WriteVector(params.Output, out, loader.WriteLayer); err != nil {
		return nil, err
	}

	zap.L().Info("Vector reprojected",
		zap.String("input", params.Input),
		zap.Stringer("from", layer.CRS),
		zap.Stringer("to", params.Target),
		zap.Int("features", len(out.Buildings)))
	return out, nil
}

// AlignParams configures the alignment of one raster onto another's grid
type AlignParams struct {
	Source     string
	Reference  string
	Output     string
	RasterCRS  model.CRS // assumed for inputs without a CRS
	Resampling raster.Resampling
	Resolution float64 // optional final pixel size
}

// Align resamples the source raster onto the reference grid
func Align(ctx context.Context, loader Loader, params AlignParams) (*raster.Grid, error) {
	src, err := loader.ReadRaster(params.Source, params.RasterCRS)
	if err != nil {
		return nil, err
	}
	ref, err := loader.ReadRaster(params.Reference, params.RasterCRS)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aligned, err := raster.Align(src, ref, params.Resampling, loader.Projections())
	if err != nil {
		return nil, fmt.Errorf("failed to align %s onto %s: %w", params.Source, params.Reference, err)
	}
	if params.Resolution > 0 {
		aligned, err = raster.ResampleToResolution(aligned, params.Resolution, params.Resampling)
		if err != nil {
			return nil, err
		}
	}
	if err := loader.WriteRaster(params.Output, aligned); err != nil {
		return nil, err
	}

	zap.L().Info("Raster aligned",
		zap.String("source", params.Source),
		zap.String("reference", params.Reference),
		zap.Int("width", aligned.Width),
		zap.Int("height", aligned.Height))
	return aligned, nil
}

// DiffParams configures a raster difference
type DiffParams struct {
	A, B      string
	AOI       string // optional crop applied to both inputs
	Output    string
	RasterCRS model.CRS
}

// Diff subtracts raster B from raster A cell by cell. Both must share shape
// and transform, after the optional AOI crop.
func Diff(ctx context.Context, loader Loader, params DiffParams) (*raster.Grid, raster.Summary, error) {
	a, err := loader.ReadRaster(params.A, params.RasterCRS)
	if err != nil {
		return nil, raster.Summary{}, err
	}
	b, err := loader.ReadRaster(params.B, params.RasterCRS)
	if err != nil {
		return nil, raster.Summary{}, err
	}

	if params.AOI != "" {
		aoi, err := readAOI(loader, params.AOI)
		if err != nil {
			return nil, raster.Summary{}, err
		}
		if a, err = raster.Crop(a, aoi, loader.Projections()); err != nil {
			return nil, raster.Summary{}, fmt.Errorf("failed to crop raster %s: %w", params.A, err)
		}
		if b, err = raster.Crop(b, aoi, loader.Projections()); err != nil {
			return nil, raster.Summary{}, fmt.Errorf("failed to crop raster %s: %w", params.B, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, raster.Summary{}, err
	}

	diff, err := raster.Difference(a, b)
	if err != nil {
		return nil, raster.Summary{}, err
	}
	if params.Output != "" {
		if err := loader.WriteRaster(params.Output, diff); err != nil {
			return nil, raster.Summary{}, err
		}
	}

	summary := diff.Summarize()
	zap.L().Info("Raster difference",
		zap.Int("valid_cells", summary.Valid),
		zap.Float64("min", summary.Min),
		zap.Float64("max", summary.Max),
		zap.Float64("mean", summary.Mean),
		zap.Float64("stddev", summary.StdDev))
	return diff, summary, nil
}
