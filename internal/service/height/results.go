package height

import (
	"sort"

	"heightval/internal/model"
	"heightval/internal/service/storage"

	"gonum.org/v1/gonum/stat"
)

// Results are the statistics collected for one run, keyed by building id
type Results struct {
	store     storage.Storage[string, model.BuildingStats]
	buildings int
}

// Lookup returns the statistics of a building, false when it had no cells
func (r *Results) Lookup(id string) (model.BuildingStats, bool) {
	return r.store.Get(id)
}

// Matched returns the number of buildings with statistics
func (r *Results) Matched() int {
	return r.store.Count()
}

// Sorted returns all statistics ordered by building id
func (r *Results) Sorted() []model.BuildingStats {
	ids := r.store.Keys()
	sort.Strings(ids)

	out := make([]model.BuildingStats, 0, len(ids))
	for _, id := range ids {
		s, _ := r.store.Get(id)
		out = append(out, s)
	}
	return out
}

// Overall reduces the results to the mean and spread of the differences
func (r *Results) Overall() model.OverallResult {
	return Reduce(r.Sorted(), r.buildings)
}

// Reduce computes the mean and population standard deviation of the
// per-building differences. An empty list yields zeros.
func Reduce(stats []model.BuildingStats, buildings int) model.OverallResult {
	res := model.OverallResult{Buildings: buildings, Matched: len(stats)}
	if len(stats) == 0 {
		return res
	}

	diffs := make([]float64, len(stats))
	for i, s := range stats {
		diffs[i] = s.AvgDiff
	}
	res.MeanDiff, res.StdDevDiff = stat.PopMeanStdDev(diffs, nil)
	return res
}
