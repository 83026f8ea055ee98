package vector

import (
	"encoding/json"
	"fmt"
	"os"

	"heightval/internal/model"

	"github.com/paulmach/orb/geojson"
)

// ReadGeoJSON loads a FeatureCollection. The legacy "crs" member is honoured;
// without it the layer is EPSG:4326.
func ReadGeoJSON(path string, fields Fields) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON %s: %w", path, err)
	}

	layer := &Layer{Name: path, CRS: crsMember(fc.ExtraMembers)}
	if len(fc.Features) == 0 {
		return layer, nil
	}

	bd := NewBuilder(fields)
	for i, f := range fc.Features {
		if b := bd.Build(i, f.ID, f.Geometry, f.Properties); b != nil {
			layer.Buildings = append(layer.Buildings, b)
		}
	}
	return layer, nil
}

func crsMember(extra geojson.Properties) model.CRS {
	raw, ok := extra["crs"].(map[string]interface{})
	if !ok {
		return model.WGS84
	}
	props, ok := raw["properties"].(map[string]interface{})
	if !ok {
		return model.WGS84
	}
	name, ok := props["name"].(string)
	if !ok || name == "" {
		return model.WGS84
	}
	return model.ParseCRS(name)
}

// WriteGeoJSON writes the layer with its properties. A non WGS84 CRS is
// recorded in the legacy "crs" member.
func WriteGeoJSON(path string, layer *Layer) error {
	fc := geojson.NewFeatureCollection()
	for _, b := range layer.Buildings {
		f := geojson.NewFeature(b.Geometry)
		for k, v := range b.Properties {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	if !layer.CRS.IsZero() && !layer.CRS.Equal(model.WGS84) {
		fc.ExtraMembers = geojson.Properties{"crs": crsObject(layer.CRS)}
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write GeoJSON %s: %w", path, err)
	}
	return nil
}

func crsObject(crs model.CRS) map[string]interface{} {
	name := crs.Definition
	if crs.EPSG != 0 {
		name = fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", crs.EPSG)
	}
	return map[string]interface{}{
		"type":       "name",
		"properties": map[string]interface{}{"name": name},
	}
}
