package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"heightval/internal/model"
	"heightval/internal/vector"

	"go.uber.org/zap"
)

// LayerWriter writes vector formats the package does not encode itself
type LayerWriter func(path string, layer *vector.Layer) error

func isPostgresDSN(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// WriteTable dispatches on the target: a PostgreSQL DSN, a SQLite file
// (.sqlite, .db) or a CSV file
func WriteTable(target string, run Run, rows []Row) error {
	if isPostgresDSN(target) {
		return WriteDB(target, run, rows)
	}

	switch ext := strings.ToLower(filepath.Ext(target)); ext {
	case ".csv":
		return WriteCSV(target, rows)
	case ".sqlite", ".db":
		return WriteDB(target, run, rows)
	default:
		return fmt.Errorf("%w: unsupported table output %q", model.ErrValidation, target)
	}
}

// WriteVector writes GeoJSON natively and hands any other extension to fallback
func WriteVector(path string, layer *vector.Layer, fallback LayerWriter) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return vector.WriteGeoJSON(path, layer)
	}
	if fallback == nil {
		return fmt.Errorf("%w: unsupported vector output %q", model.ErrValidation, path)
	}
	return fallback(path, layer)
}

// Write produces both outputs of a run; empty paths are skipped
func Write(tablePath, vectorPath string, run Run, layer *vector.Layer, results Results, policy model.OutputPolicy, fallback LayerWriter) error {
	if tablePath != "" {
		rows := Rows(layer.Buildings, results, policy)
		if err := WriteTable(tablePath, run, rows); err != nil {
			return err
		}
		zap.L().Info("Per-building table written",
			zap.String("path", redact(tablePath)),
			zap.Int("rows", len(rows)),
			zap.Stringer("policy", policy))
	}

	if vectorPath != "" {
		augmented := Augment(layer, results, policy)
		if err := WriteVector(vectorPath, augmented, fallback); err != nil {
			return err
		}
		zap.L().Info("Augmented vector layer written",
			zap.String("path", vectorPath),
			zap.Int("features", len(augmented.Buildings)),
			zap.Stringer("policy", policy))
	}
	return nil
}

// redact hides credentials of database DSNs in logs
func redact(target string) string {
	if !isPostgresDSN(target) {
		return target
	}
	at := strings.LastIndex(target, "@")
	scheme := strings.Index(target, "://")
	if at < 0 || scheme < 0 {
		return target
	}
	return target[:scheme+3] + "***" + target[at:]
}
