package raster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the valid cells of a grid
type Summary struct {
	Valid  int
	NoData int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes statistics over the cells that carry data
func (g *Grid) Summarize() Summary {
	valid := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if !g.IsNoData(v) {
			valid = append(valid, v)
		}
	}

	s := Summary{Valid: len(valid), NoData: len(g.Data) - len(valid)}
	if len(valid) == 0 {
		return s
	}
	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	s.Mean, s.StdDev = stat.PopMeanStdDev(valid, nil)
	return s
}
