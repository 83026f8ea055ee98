package raster

import (
	"fmt"
	"math"
	"strings"

	"heightval/internal/model"
	"heightval/internal/proj"

	"github.com/paulmach/orb"
)

// Resampling selects how destination cells are filled from source cells.
// Nearest keeps measured values intact and is used whenever elevations are
// cropped or reprojected. Bilinear is reserved for aligning grids of
// differing native resolution.
type Resampling int

const (
	Nearest Resampling = iota
	Bilinear
)

// ParseResampling accepts "nearest"/"near" and "bilinear"
func ParseResampling(s string) (Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest", "near":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	}
	return Nearest, fmt.Errorf("%w: unknown resampling %q", model.ErrValidation, s)
}

// String returns the method name as understood by gdalwarp -r
func (r Resampling) String() string {
	if r == Bilinear {
		return "bilinear"
	}
	return "near"
}

// Resample fills a grid of shape dst from src. inverse maps destination CRS
// coordinates into src's CRS; pass proj.Identity when both share a CRS.
// Cells that fall outside src, or on nodata with Nearest, receive src's fill value.
func Resample(src *Grid, dst Spec, method Resampling, inverse proj.Projector) (*Grid, error) {
	if inverse == nil {
		inverse = proj.Identity
	}

	out := NewGrid(dst, 0)
	out.NoData, out.HasNoData = src.NoData, src.HasNoData
	fill := src.Fill()

	for row := 0; row < dst.Height; row++ {
		for col := 0; col < dst.Width; col++ {
			x, y := dst.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
			p, err := inverse.Project(orb.Point{x, y})
			if err != nil {
				out.Set(row, col, fill)
				continue
			}
			px, py, err := src.Transform.Invert(p[0], p[1])
			if err != nil {
				return nil, err
			}

			var v float64
			switch method {
			case Bilinear:
				v = src.sampleBilinear(px, py)
			default:
				v = src.sampleNearest(px, py)
			}
			out.Set(row, col, v)
		}
	}

	return out, nil
}

func (g *Grid) sampleNearest(px, py float64) float64 {
	col := int(math.Floor(px))
	row := int(math.Floor(py))
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return g.Fill()
	}
	return g.At(row, col)
}

// sampleBilinear interpolates between the four surrounding cell centres and
// falls back to nearest neighbour at the edges or next to nodata
func (g *Grid) sampleBilinear(px, py float64) float64 {
	fx := px - 0.5
	fy := py - 0.5
	x1 := int(math.Floor(fx))
	y1 := int(math.Floor(fy))
	x2 := x1 + 1
	y2 := y1 + 1

	if x1 < 0 || x2 >= g.Width || y1 < 0 || y2 >= g.Height {
		return g.sampleNearest(px, py)
	}

	topLeft := g.At(y1, x1)
	topRight := g.At(y1, x2)
	bottomLeft := g.At(y2, x1)
	bottomRight := g.At(y2, x2)
	for _, v := range []float64{topLeft, topRight, bottomLeft, bottomRight} {
		if g.IsNoData(v) {
			return g.sampleNearest(px, py)
		}
	}

	dx := fx - float64(x1)
	dy := fy - float64(y1)
	top := topLeft*(1-dx) + topRight*dx
	bottom := bottomLeft*(1-dx) + bottomRight*dx
	return top*(1-dy) + bottom*dy
}

// SuggestedSpec computes the default output grid when src is reprojected
// through forward: the projected extent, sampled with square pixels that keep
// the diagonal pixel count of the source
func SuggestedSpec(src Spec, dst model.CRS, forward proj.Projector) (Spec, error) {
	b, err := proj.Bound(src.Bounds(), forward, 20)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to project raster extent: %w", err)
	}

	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	srcDiagonal := math.Hypot(float64(src.Width), float64(src.Height))
	if dx <= 0 || dy <= 0 || srcDiagonal == 0 {
		return Spec{}, fmt.Errorf("%w: degenerate projected extent %v", model.ErrValidation, b)
	}

	res := math.Hypot(dx, dy) / srcDiagonal
	return Spec{
		Width:     int(math.Ceil(dx/res - snapTolerance)),
		Height:    int(math.Ceil(dy/res - snapTolerance)),
		Transform: NewNorthUp(b.Min[0], b.Max[1], res, res),
		CRS:       dst,
	}, nil
}

// Reproject warps the whole grid into dst
func Reproject(src *Grid, dst model.CRS, method Resampling, factory proj.Factory) (*Grid, error) {
	if factory == nil {
		factory = proj.Builtin
	}

	forward, err := factory.New(src.CRS, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create transformation %s -> %s: %w", src.CRS, dst, err)
	}
	inverse, err := factory.New(dst, src.CRS)
	if err != nil {
		return nil, fmt.Errorf("failed to create transformation %s -> %s: %w", dst, src.CRS, err)
	}

	spec, err := SuggestedSpec(src.Spec(), dst, forward)
	if err != nil {
		return nil, err
	}
	return Resample(src, spec, method, inverse)
}

// ResampleToResolution keeps the extent and CRS and changes the pixel size
func ResampleToResolution(src *Grid, res float64, method Resampling) (*Grid, error) {
	if res <= 0 {
		return nil, fmt.Errorf("%w: resolution must be positive, got %f", model.ErrValidation, res)
	}

	b := src.Bounds()
	spec := Spec{
		Width:     int((b.Max[0] - b.Min[0]) / res),
		Height:    int((b.Max[1] - b.Min[1]) / res),
		Transform: NewNorthUp(b.Min[0], b.Max[1], res, res),
		CRS:       src.CRS,
	}
	if spec.Width == 0 || spec.Height == 0 {
		return nil, fmt.Errorf("%w: resolution %f larger than raster extent", model.ErrValidation, res)
	}
	return Resample(src, spec, method, proj.Identity)
}
