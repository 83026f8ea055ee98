package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var csvHeader = []string{
	"Building ID", "Max Height", "Min Height", "Avg Height", "Stddev Height", "Num Points", "Avg Height Diff",
}

// WriteCSV writes one line per row. Unmatched rows have empty stats columns.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, r := range rows {
		if err := w.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func csvRecord(r Row) []string {
	if r.Stats == nil {
		return []string{r.BuildingID, "", "", "", "", "", ""}
	}
	s := r.Stats
	return []string{
		r.BuildingID,
		formatFloat(s.Max),
		formatFloat(s.Min),
		formatFloat(s.Mean),
		formatFloat(s.StdDev),
		strconv.Itoa(s.NumPoints),
		formatFloat(s.AvgDiff),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
