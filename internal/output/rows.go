// Package output writes the per-building results of a run as a table and as
// an augmented copy of the building layer.
package output

import (
	"sort"

	"heightval/internal/model"
	"heightval/internal/vector"
)

// Attributes added to every written feature
const (
	AttrHeightDiff = "height_diff"
	AttrNumPoints  = "num_points"
	AttrMeanHeight = "mean_height"
)

// Results gives access to the statistics of a run by building id
type Results interface {
	Lookup(id string) (model.BuildingStats, bool)
}

// Row is one line of the per-building table. Stats are nil for unmatched
// buildings written under the null policy.
type Row struct {
	BuildingID string
	Stats      *model.BuildingStats
}

// Rows selects the table rows for a set of buildings, ordered by id
func Rows(buildings []*model.Building, results Results, policy model.OutputPolicy) []Row {
	rows := make([]Row, 0, len(buildings))
	for _, b := range buildings {
		s, ok := results.Lookup(b.ID)
		switch {
		case ok:
			s := s
			rows = append(rows, Row{BuildingID: b.ID, Stats: &s})
		case policy == model.OutputNullUnmatched:
			rows = append(rows, Row{BuildingID: b.ID})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BuildingID < rows[j].BuildingID })
	return rows
}

// Augment returns a copy of the layer whose features carry the result
// attributes. Under the omit policy unmatched buildings are dropped; under
// the null policy they are kept with null attributes.
func Augment(layer *vector.Layer, results Results, policy model.OutputPolicy) *vector.Layer {
	out := &vector.Layer{Name: layer.Name, CRS: layer.CRS}
	for _, b := range layer.Buildings {
		s, ok := results.Lookup(b.ID)
		if !ok && policy == model.OutputOmitUnmatched {
			continue
		}

		props := make(map[string]interface{}, len(b.Properties)+3)
		for k, v := range b.Properties {
			props[k] = v
		}
		if ok {
			props[AttrHeightDiff] = s.AvgDiff
			props[AttrNumPoints] = s.NumPoints
			props[AttrMeanHeight] = s.Mean
		} else {
			props[AttrHeightDiff] = nil
			props[AttrNumPoints] = nil
			props[AttrMeanHeight] = nil
		}

		nb := b.WithGeometry(b.Geometry)
		nb.Properties = props
		out.Buildings = append(out.Buildings, nb)
	}
	return out
}
