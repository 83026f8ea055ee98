package vector

import (
	"path/filepath"
	"strings"
)

// Reader loads layers of formats the package cannot decode itself
type Reader interface {
	ReadLayer(path string, fields Fields) (*Layer, error)
}

// ReaderFunc adapts a function to a Reader
type ReaderFunc func(path string, fields Fields) (*Layer, error)

func (f ReaderFunc) ReadLayer(path string, fields Fields) (*Layer, error) { return f(path, fields) }

// Open picks a decoder by file extension: GeoJSON and OSM PBF are read
// natively, anything else goes through fallback (GeoPackage, Shapefile...).
func Open(path string, fields Fields, fallback Reader) (*Layer, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		return ReadGeoJSON(path, fields)
	case ".pbf":
		return ReadOSM(path, fields)
	default:
		if fallback == nil {
			return nil, unsupportedFormat(path)
		}
		return fallback.ReadLayer(path, fields)
	}
}
