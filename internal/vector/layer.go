// Package vector reads building footprint layers and moves them between
// reference systems and areas of interest.
package vector

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"heightval/internal/model"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var (
	// ErrEmptyLayer is returned when a layer has no features at all
	ErrEmptyLayer = model.ValidationError("vector layer contains no features")

	// ErrNoFeaturesInAOI is returned when no feature survives clipping to the area of interest
	ErrNoFeaturesInAOI = model.ValidationError("no features intersect the area of interest")
)

// Layer is a set of building footprints sharing one CRS
type Layer struct {
	Name      string
	CRS       model.CRS
	Buildings []*model.Building
}

// Bound returns the union of all footprint bounds
func (l *Layer) Bound() (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, bld := range l.Buildings {
		if bld.Geometry == nil {
			continue
		}
		if !found {
			b, found = bld.Bound(), true
			continue
		}
		b = b.Union(bld.Bound())
	}
	return b, found
}

// Geometries returns the footprints in layer order
func (l *Layer) Geometries() []orb.Geometry {
	out := make([]orb.Geometry, 0, len(l.Buildings))
	for _, b := range l.Buildings {
		out = append(out, b.Geometry)
	}
	return out
}

// Fields names the attributes holding the identifier and reference height
type Fields struct {
	ID     string `mapstructure:"id"`
	Height string `mapstructure:"height"`

	// AnyGeometry keeps points and lines, which are dropped otherwise
	AnyGeometry bool `mapstructure:"-"`
}

// NoHeight as the height field accepts features without a reference height,
// as in area of interest layers
const NoHeight = "-"

// DefaultFields are the attribute names used when none are configured
var DefaultFields = Fields{ID: "id", Height: "height"}

func (f Fields) withDefaults() Fields {
	if f.ID == "" {
		f.ID = DefaultFields.ID
	}
	if f.Height == "" {
		f.Height = DefaultFields.Height
	}
	return f
}

// Builder turns raw features into buildings, assigning fallback identifiers
// and keeping them unique within the layer
type Builder struct {
	fields Fields
	seen   map[string]int
}

// NewBuilder creates a builder for one layer
func NewBuilder(fields Fields) *Builder {
	return &Builder{fields: fields.withDefaults(), seen: make(map[string]int)}
}

// Build returns nil for features that cannot be used as buildings: no
// polygon geometry (unless Fields.AnyGeometry) or no parsable height.
// index is the feature position, used as identifier of last resort.
func (bd *Builder) Build(index int, featureID interface{}, geom orb.Geometry, props map[string]interface{}) *model.Building {
	if props == nil {
		props = map[string]interface{}{}
	}

	id := formatID(props[bd.fields.ID])
	if id == "" {
		id = formatID(featureID)
	}
	if id == "" {
		id = strconv.Itoa(index)
	}
	if n := bd.seen[id]; n > 0 {
		base := id
		for bd.seen[fmt.Sprintf("%s-%d", base, n)] > 0 {
			n++
		}
		bd.seen[base] = n + 1
		id = fmt.Sprintf("%s-%d", base, n)
		zap.L().Warn("Duplicate building id, renaming", zap.String("id", base), zap.String("renamed", id))
	}
	bd.seen[id]++

	height, ok := 0.0, true
	if bd.fields.Height != NoHeight {
		height, ok = parseHeight(props[bd.fields.Height])
	}
	if !ok {
		zap.L().Debug("Feature has no usable height, skipping",
			zap.String("id", id), zap.String("field", bd.fields.Height))
		return nil
	}

	b := &model.Building{ID: id, Height: height, Geometry: geom, Properties: props}
	if !b.IsAreal() && !(bd.fields.AnyGeometry && geom != nil) {
		zap.L().Debug("Feature is not a polygon, skipping", zap.String("id", id))
		return nil
	}
	return b
}

func formatID(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprintf("%v", v)
}

// parseHeight accepts numbers and strings such as "12.5" or "12.5 m"
func parseHeight(v interface{}) (float64, bool) {
	var h float64
	switch t := v.(type) {
	case float64:
		h = t
	case float32:
		h = float64(t)
	case int:
		h = float64(t)
	case int64:
		h = float64(t)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "m"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		h = f
	default:
		return 0, false
	}
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, false
	}
	return h, true
}
