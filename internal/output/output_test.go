package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"heightval/internal/model"
	"heightval/internal/vector"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResults map[string]model.BuildingStats

func (f fakeResults) Lookup(id string) (model.BuildingStats, bool) {
	s, ok := f[id]
	return s, ok
}

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

func fixture() (*vector.Layer, fakeResults) {
	layer := &vector.Layer{
		Name: "buildings",
		CRS:  model.CRSFromEPSG(28992),
		Buildings: []*model.Building{
			{ID: "b", Height: 10, Geometry: square(0, 0, 1, 1), Properties: map[string]interface{}{"id": "b", "height": 10.0}},
			{ID: "a", Height: 5, Geometry: square(2, 2, 3, 3), Properties: map[string]interface{}{"id": "a", "height": 5.0}},
			{ID: "c", Height: 7, Geometry: square(4, 4, 5, 5), Properties: map[string]interface{}{"id": "c", "height": 7.0}},
		},
	}
	results := fakeResults{
		"a": {BuildingID: "a", Max: 8, Min: 4, Mean: 6, StdDev: 1.5, NumPoints: 3, AvgDiff: 1},
		"b": {BuildingID: "b", Max: 12, Min: 9, Mean: 10.5, StdDev: 0.5, NumPoints: 2, AvgDiff: 0.5},
	}
	return layer, results
}

func TestRows(t *testing.T) {
	layer, results := fixture()

	omit := Rows(layer.Buildings, results, model.OutputOmitUnmatched)
	require.Len(t, omit, 2)
	assert.Equal(t, "a", omit[0].BuildingID)
	assert.Equal(t, "b", omit[1].BuildingID)

	null := Rows(layer.Buildings, results, model.OutputNullUnmatched)
	require.Len(t, null, 3)
	assert.Equal(t, "c", null[2].BuildingID)
	assert.Nil(t, null[2].Stats)
}

func TestAugment(t *testing.T) {
	layer, results := fixture()

	omit := Augment(layer, results, model.OutputOmitUnmatched)
	require.Len(t, omit.Buildings, 2)
	assert.Equal(t, "b", omit.Buildings[0].ID)
	assert.Equal(t, 0.5, omit.Buildings[0].Properties[AttrHeightDiff])
	assert.Equal(t, 2, omit.Buildings[0].Properties[AttrNumPoints])
	assert.Equal(t, 10.5, omit.Buildings[0].Properties[AttrMeanHeight])
	assert.Equal(t, 10.0, omit.Buildings[0].Properties["height"])

	// input properties are not modified
	_, ok := layer.Buildings[0].Properties[AttrHeightDiff]
	assert.False(t, ok)

	null := Augment(layer, results, model.OutputNullUnmatched)
	require.Len(t, null.Buildings, 3)
	v, ok := null.Buildings[2].Properties[AttrHeightDiff]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV(t *testing.T) {
	layer, results := fixture()
	dir := t.TempDir()

	path := filepath.Join(dir, "omit.csv")
	require.NoError(t, WriteTable(path, Run{}, Rows(layer.Buildings, results, model.OutputOmitUnmatched)))
	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"a", "8", "4", "6", "1.5", "3", "1"}, records[1])

	path = filepath.Join(dir, "null.csv")
	require.NoError(t, WriteTable(path, Run{}, Rows(layer.Buildings, results, model.OutputNullUnmatched)))
	records = readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"c", "", "", "", "", "", ""}, records[3])
}

func TestWriteSQLite(t *testing.T) {
	layer, results := fixture()
	path := filepath.Join(t.TempDir(), "results.sqlite")

	run := Run{ID: "run-1", Raster: "dsm.tif", Overall: model.OverallResult{MeanDiff: 0.75, Buildings: 3, Matched: 2}}
	require.NoError(t, WriteTable(path, run, Rows(layer.Buildings, results, model.OutputNullUnmatched)))

	db, err := openDB(path)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var stored RunRecord
	require.NoError(t, db.First(&stored, "id = ?", "run-1").Error)
	assert.Equal(t, 0.75, stored.MeanDiff)
	assert.Equal(t, 2, stored.Matched)

	var rows []BuildingStatsRecord
	require.NoError(t, db.Order("building_id").Find(&rows, "run_id = ?", "run-1").Error)
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].AvgDiff)
	assert.Equal(t, 1.0, *rows[0].AvgDiff)
	assert.Nil(t, rows[2].AvgDiff)
	assert.Nil(t, rows[2].NumPoints)
}

func TestWriteTableUnsupported(t *testing.T) {
	err := WriteTable("out.xlsx", Run{}, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestWriteVectorGeoJSON(t *testing.T) {
	layer, results := fixture()
	path := filepath.Join(t.TempDir(), "out.geojson")

	require.NoError(t, Write("", path, Run{}, layer, results, model.OutputNullUnmatched, nil))

	back, err := vector.ReadGeoJSON(path, vector.Fields{})
	require.NoError(t, err)
	require.Len(t, back.Buildings, 3)
	assert.Equal(t, 28992, back.CRS.EPSG)
	assert.Equal(t, 0.5, back.Buildings[0].Properties[AttrHeightDiff])
	assert.Nil(t, back.Buildings[2].Properties[AttrHeightDiff])
}

func TestWriteVectorFallback(t *testing.T) {
	layer, results := fixture()

	var written *vector.Layer
	fallback := func(path string, l *vector.Layer) error {
		written = l
		return nil
	}
	require.NoError(t, Write("", "out.gpkg", Run{}, layer, results, model.OutputOmitUnmatched, fallback))
	require.NotNil(t, written)
	assert.Len(t, written.Buildings, 2)

	err := WriteVector("out.gpkg", layer, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/hv", redact("postgres://user:secret@db:5432/hv"))
	assert.Equal(t, "out.csv", redact("out.csv"))
}
