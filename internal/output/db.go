package output

import (
	"fmt"
	"time"

	"heightval/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunRecord is the GORM model describing one validation run
type RunRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	Raster     string `gorm:"type:text"`
	Vector     string `gorm:"type:text"`
	AOI        string `gorm:"type:text"`
	Buildings  int    `gorm:"not null"`
	Matched    int    `gorm:"not null"`
	MeanDiff   float64
	StdDevDiff float64
	CreatedAt  time.Time
}

// BuildingStatsRecord is the GORM model of one row of the per-building table
type BuildingStatsRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"size:36;index;not null"`
	BuildingID string `gorm:"size:255;index;not null"`
	MaxHeight  *float64
	MinHeight  *float64
	AvgHeight  *float64
	StdDev     *float64
	NumPoints  *int
	AvgDiff    *float64
}

// Run identifies the inputs of a run for the database sink
type Run struct {
	ID      string
	Raster  string
	Vector  string
	AOI     string
	Overall model.OverallResult
}

// openDB connects to PostgreSQL for postgres:// DSNs and to a SQLite file otherwise
func openDB(target string) (*gorm.DB, error) {
	// Configure GORM logger with higher slow SQL threshold
	gormLogger := logger.New(
		zap.NewStdLog(zap.L().Named("gorm")),
		logger.Config{
			SlowThreshold: time.Millisecond * 500,
			LogLevel:      logger.Warn,
		},
	)

	var dialector gorm.Dialector
	if isPostgresDSN(target) {
		dialector = postgres.Open(target)
	} else {
		dialector = sqlite.Open(target)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}, &BuildingStatsRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate result tables: %w", err)
	}
	return db, nil
}

// WriteDB stores the run and its rows in one transaction
func WriteDB(target string, run Run, rows []Row) error {
	db, err := openDB(target)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database handle: %w", err)
	}
	defer sqlDB.Close()

	records := make([]BuildingStatsRecord, len(rows))
	for i, r := range rows {
		records[i] = statsRecord(run.ID, r)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&RunRecord{
			ID:         run.ID,
			Raster:     run.Raster,
			Vector:     run.Vector,
			AOI:        run.AOI,
			Buildings:  run.Overall.Buildings,
			Matched:    run.Overall.Matched,
			MeanDiff:   run.Overall.MeanDiff,
			StdDevDiff: run.Overall.StdDevDiff,
		}).Error; err != nil {
			return fmt.Errorf("failed to store run %s: %w", run.ID, err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("failed to store building statistics: %w", err)
		}
		return nil
	})
}

func statsRecord(runID string, r Row) BuildingStatsRecord {
	rec := BuildingStatsRecord{RunID: runID, BuildingID: r.BuildingID}
	if s := r.Stats; s != nil {
		rec.MaxHeight = &s.Max
		rec.MinHeight = &s.Min
		rec.AvgHeight = &s.Mean
		rec.StdDev = &s.StdDev
		rec.NumPoints = &s.NumPoints
		rec.AvgDiff = &s.AvgDiff
	}
	return rec
}
