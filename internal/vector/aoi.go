package vector

import (
	"fmt"

	"heightval/internal/model"
)

func unsupportedFormat(path string) error {
	return fmt.Errorf("%w: no reader for %s", model.ErrValidation, path)
}

// ResolveAOI returns the total bounds and CRS of an area of interest layer.
// Any polygon feature counts; no attributes are required.
func ResolveAOI(path string, fallback Reader) (model.BoundingBox, error) {
	layer, err := Open(path, Fields{Height: NoHeight}, fallback)
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("failed to read AOI %s: %w", path, err)
	}
	return AOIFromLayer(layer)
}

// AOIFromLayer returns the total bounds of a layer in its CRS
func AOIFromLayer(layer *Layer) (model.BoundingBox, error) {
	b, ok := layer.Bound()
	if !ok {
		return model.BoundingBox{}, fmt.Errorf("%w: AOI %s", ErrEmptyLayer, layer.Name)
	}
	if layer.CRS.IsZero() {
		return model.BoundingBox{}, fmt.Errorf("%w: AOI %s has no coordinate reference system", model.ErrValidation, layer.Name)
	}
	return model.BoundingBoxFromBound(b, layer.CRS)
}
