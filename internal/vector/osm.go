package vector

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"heightval/internal/model"

	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
	"go.uber.org/zap"
)

// metersPerLevel converts building:levels to a height when no height tag is present
const metersPerLevel = 3.0

// ReadOSM extracts closed building ways from an OSM PBF extract. The
// reference height comes from the tag named by fields.Height, or
// building:levels times three metres.
func ReadOSM(path string, fields Fields) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OSM file: %w", err)
	}
	defer file.Close()

	// First pass: collect all nodes
	decoder := osmpbf.NewDecoder(file)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, fmt.Errorf("failed to start OSM decoder: %w", err)
	}
	nodes, err := collectNodes(decoder)
	if err != nil {
		return nil, err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind OSM file: %w", err)
	}

	// Second pass: building ways
	decoder = osmpbf.NewDecoder(file)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, fmt.Errorf("failed to start OSM decoder: %w", err)
	}

	layer := &Layer{Name: path, CRS: model.WGS84}
	bd := NewBuilder(fields)
	var index int
	for {
		obj, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error decoding OSM data: %w", err)
		}

		way, ok := obj.(*osmpbf.Way)
		if !ok {
			continue
		}
		if tag, ok := way.Tags["building"]; !ok || tag == "no" {
			continue
		}

		ring := wayRing(way, nodes)
		if ring == nil {
			continue
		}
		props := wayProperties(way, bd.fields.Height)
		if b := bd.Build(index, way.ID, orb.Polygon{ring}, props); b != nil {
			layer.Buildings = append(layer.Buildings, b)
		}
		index++
	}

	zap.L().Info("OSM buildings extracted", zap.String("path", path), zap.Int("buildings", len(layer.Buildings)))
	return layer, nil
}

func collectNodes(decoder *osmpbf.Decoder) (map[int64]orb.Point, error) {
	nodes := make(map[int64]orb.Point)
	for {
		obj, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error decoding OSM data: %w", err)
		}
		if node, ok := obj.(*osmpbf.Node); ok {
			nodes[node.ID] = orb.Point{node.Lon, node.Lat}
			if len(nodes)%1000000 == 0 {
				zap.L().Debug("Collecting nodes", zap.Int("nodes", len(nodes)))
			}
		}
	}
	return nodes, nil
}

// wayRing resolves the node references of a way into a closed ring, nil when
// nodes are missing or the way is too short
func wayRing(way *osmpbf.Way, nodes map[int64]orb.Point) orb.Ring {
	if len(way.NodeIDs) < 3 {
		return nil
	}
	ring := make(orb.Ring, 0, len(way.NodeIDs)+1)
	for _, id := range way.NodeIDs {
		p, ok := nodes[id]
		if !ok {
			return nil
		}
		ring = append(ring, p)
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil
	}
	return ring
}

// wayProperties copies the tags and stores the parsed height under key
func wayProperties(way *osmpbf.Way, key string) map[string]interface{} {
	props := make(map[string]interface{}, len(way.Tags)+2)
	for k, v := range way.Tags {
		props[k] = v
	}
	props["id"] = strconv.FormatInt(way.ID, 10)
	if key == "" || key == NoHeight {
		key = DefaultFields.Height
	}

	if h, ok := parseHeight(way.Tags[key]); ok && h > 0 {
		props[key] = h
		return props
	}
	delete(props, key)
	if levels, err := strconv.Atoi(strings.TrimSpace(way.Tags["building:levels"])); err == nil && levels > 0 {
		props[key] = float64(levels) * metersPerLevel
	}
	return props
}
