package model

import (
	"fmt"
	"strings"
)

// BuildingStats holds the elevation statistics of the cells matched to one building
type BuildingStats struct {
	BuildingID string
	Max        float64
	Min        float64
	Mean       float64
	StdDev     float64 // population standard deviation
	NumPoints  int
	AvgDiff    float64 // Mean - reference height
}

func (s BuildingStats) String() string {
	return fmt.Sprintf("Max: %v, Min: %v, Avg: %v, Stddev: %v, Points: %d, Avg Diff: %v",
		s.Max, s.Min, s.Mean, s.StdDev, s.NumPoints, s.AvgDiff)
}

// OverallResult summarises the per-building differences of one run
type OverallResult struct {
	MeanDiff   float64
	StdDevDiff float64
	Buildings  int // buildings evaluated
	Matched    int // buildings with at least one finite cell
}

// Unmatched is the number of buildings excluded from the statistics
func (r OverallResult) Unmatched() int {
	return r.Buildings - r.Matched
}

// BoundaryPolicy decides whether cell centres lying exactly on a polygon
// boundary belong to the building
type BoundaryPolicy int

const (
	BoundaryExclusive BoundaryPolicy = iota // boundary points are outside
	BoundaryInclusive                       // boundary points are inside
)

// ParseBoundaryPolicy accepts "exclusive" or "inclusive"
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclusive":
		return BoundaryExclusive, nil
	case "inclusive":
		return BoundaryInclusive, nil
	}
	return BoundaryExclusive, fmt.Errorf("%w: unknown boundary policy %q", ErrValidation, s)
}

func (p BoundaryPolicy) String() string {
	if p == BoundaryInclusive {
		return "inclusive"
	}
	return "exclusive"
}

// OutputPolicy decides how unmatched buildings appear in the outputs
type OutputPolicy int

const (
	OutputOmitUnmatched OutputPolicy = iota // only buildings with stats are written
	OutputNullUnmatched                     // every building is written, stats left empty
)

// ParseOutputPolicy accepts "omit" or "null"
func ParseOutputPolicy(s string) (OutputPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "omit":
		return OutputOmitUnmatched, nil
	case "null":
		return OutputNullUnmatched, nil
	}
	return OutputOmitUnmatched, fmt.Errorf("%w: unknown output policy %q", ErrValidation, s)
}

func (p OutputPolicy) String() string {
	if p == OutputNullUnmatched {
		return "null"
	}
	return "omit"
}
