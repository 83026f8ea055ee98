package gdalio

import (
	"fmt"
	"sort"

	"heightval/internal/model"
	"heightval/internal/vector"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

// Reader opens any OGR readable layer
var Reader vector.Reader = vector.ReaderFunc(ReadLayer)

// ReadLayer loads the first layer of an OGR dataset
func ReadLayer(path string, fields vector.Fields) (*vector.Layer, error) {
	Init()

	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to open vector %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: %s has no layers", vector.ErrEmptyLayer, path)
	}
	lyr := layers[0]
	if len(layers) > 1 {
		zap.L().Warn("Dataset has several layers, reading the first", zap.String("path", path), zap.String("layer", lyr.Name()))
	}

	out := &vector.Layer{Name: lyr.Name()}
	if sr := lyr.SpatialRef(); sr != nil {
		out.CRS = crsFromSpatialRef(sr)
		sr.Close()
	}

	bd := vector.NewBuilder(fields)
	lyr.ResetReading()
	for i := 0; ; i++ {
		feat := lyr.NextFeature()
		if feat == nil {
			break
		}
		b, err := buildingFromFeature(bd, i, feat)
		feat.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read feature %d of %s: %w", i, path, err)
		}
		if b != nil {
			out.Buildings = append(out.Buildings, b)
		}
	}

	zap.L().Debug("Vector layer loaded",
		zap.String("path", path),
		zap.String("layer", out.Name),
		zap.Int("features", len(out.Buildings)),
		zap.Stringer("crs", out.CRS))
	return out, nil
}

func buildingFromFeature(bd *vector.Builder, index int, feat *godal.Feature) (*model.Building, error) {
	props := make(map[string]interface{})
	for name, f := range feat.Fields() {
		props[name] = fieldValue(f)
	}

	geom := feat.Geometry()
	if geom == nil {
		return nil, nil
	}
	defer geom.Close()
	if geom.Empty() {
		return nil, nil
	}

	raw, err := geom.WKB()
	if err != nil {
		return nil, err
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	return bd.Build(index, nil, g, props), nil
}

// fieldValue returns nil for NULL fields, which OGR would otherwise report
// as zero
func fieldValue(f godal.Field) interface{} {
	if !f.IsSet() {
		return nil
	}
	switch f.Type() {
	case godal.FTInt, godal.FTInt64:
		return f.Int()
	case godal.FTReal:
		return f.Float()
	default:
		return f.String()
	}
}

// WriteLayer writes footprints and their properties to an OGR dataset.
// The driver follows the file extension.
func WriteLayer(path string, layer *vector.Layer) error {
	Init()

	driver, err := vectorDriver(path)
	if err != nil {
		return err
	}

	ds, err := godal.CreateVector(driver, path)
	if err != nil {
		return fmt.Errorf("failed to create vector %s: %w", path, err)
	}
	defer ds.Close()

	var sr *godal.SpatialRef
	if !layer.CRS.IsZero() {
		sr, err = spatialRef(layer.CRS)
		if err != nil {
			return err
		}
		defer sr.Close()
	}

	schema := fieldSchema(layer.Buildings)
	opts := make([]godal.CreateLayerOption, 0, len(schema))
	for _, fd := range schema {
		opts = append(opts, godal.NewFieldDefinition(fd.name, fd.kind))
	}

	lyr, err := ds.CreateLayer(layerName(layer), sr, geometryType(layer.Buildings), opts...)
	if err != nil {
		return fmt.Errorf("failed to create layer in %s: %w", path, err)
	}

	for _, b := range layer.Buildings {
		if err := writeFeature(lyr, sr, b, schema); err != nil {
			return fmt.Errorf("failed to write building %s: %w", b.ID, err)
		}
	}
	return nil
}

func writeFeature(lyr godal.Layer, sr *godal.SpatialRef, b *model.Building, schema []fieldDef) error {
	raw, err := wkb.Marshal(asMultiPolygon(b.Geometry))
	if err != nil {
		return err
	}
	geom, err := godal.NewGeometryFromWKB(raw, sr)
	if err != nil {
		return err
	}
	defer geom.Close()

	feat, err := lyr.NewFeature(geom)
	if err != nil {
		return err
	}
	defer feat.Close()

	fields := feat.Fields()
	for _, fd := range schema {
		v, ok := b.Properties[fd.name]
		if !ok || v == nil {
			continue
		}
		f, ok := fields[fd.name]
		if !ok {
			continue
		}
		if err := feat.SetFieldValue(f, coerce(v, fd.kind)); err != nil {
			return err
		}
	}
	return lyr.UpdateFeature(feat)
}

func layerName(layer *vector.Layer) string {
	if layer.Name == "" {
		return "buildings"
	}
	return layer.Name
}

// geometryType is multipolygon for footprint layers and unknown when other
// geometries are mixed in
func geometryType(buildings []*model.Building) godal.GeometryType {
	for _, b := range buildings {
		if !b.IsAreal() {
			return godal.GTUnknown
		}
	}
	return godal.GTMultiPolygon
}

func asMultiPolygon(g orb.Geometry) orb.Geometry {
	if p, ok := g.(orb.Polygon); ok {
		return orb.MultiPolygon{p}
	}
	return g
}

type fieldDef struct {
	name string
	kind godal.FieldType
}

// fieldSchema derives one OGR field per property name, typed from the values
// seen across all buildings: integers, reals, or strings when mixed
func fieldSchema(buildings []*model.Building) []fieldDef {
	kinds := make(map[string]godal.FieldType)
	for _, b := range buildings {
		for name, v := range b.Properties {
			k, ok := kindOf(v)
			if !ok {
				continue
			}
			prev, seen := kinds[name]
			switch {
			case !seen:
				kinds[name] = k
			case prev == k:
			case isNumeric(prev) && isNumeric(k):
				kinds[name] = godal.FTReal
			default:
				kinds[name] = godal.FTString
			}
		}
	}

	names := make([]string, 0, len(kinds))
	for n := range kinds {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]fieldDef, len(names))
	for i, n := range names {
		out[i] = fieldDef{name: n, kind: kinds[n]}
	}
	return out
}

func kindOf(v interface{}) (godal.FieldType, bool) {
	switch v.(type) {
	case nil:
		return 0, false
	case int, int32, int64:
		return godal.FTInt64, true
	case float32, float64:
		return godal.FTReal, true
	}
	return godal.FTString, true
}

func isNumeric(k godal.FieldType) bool {
	return k == godal.FTInt64 || k == godal.FTReal
}

// coerce converts a property to the Go type matching its OGR field
func coerce(v interface{}, kind godal.FieldType) interface{} {
	switch kind {
	case godal.FTInt64:
		switch t := v.(type) {
		case int:
			return int64(t)
		case int32:
			return int64(t)
		}
		return v
	case godal.FTReal:
		switch t := v.(type) {
		case int:
			return float64(t)
		case int32:
			return float64(t)
		case int64:
			return float64(t)
		case float32:
			return float64(t)
		}
		return v
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
