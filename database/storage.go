package database

import (
	"chainboard/interfaces"
	"chainboard/models"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LocalStorage implements the CycleStore interface using SQLite
type LocalStorage struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewLocalStorage creates a new local storage service
func NewLocalStorage(dbPath string) (*LocalStorage, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open SQLite database
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate schemas
	if err := db.AutoMigrate(&models.DBPollCycle{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &LocalStorage{
		db:     db,
		logger: log,
	}, nil
}

// SavePollCycle saves one poll cycle record
func (s *LocalStorage) SavePollCycle(record *interfaces.PollCycleRecord) error {
	dbCycle := &models.DBPollCycle{
		Symbol:          record.Symbol,
		StartedAt:       record.StartedAt,
		DurationMs:      record.DurationMs,
		Success:         record.Success,
		ErrorMessage:    record.ErrorMessage,
		Trigger:         record.Trigger,
		UnderlyingValue: record.UnderlyingValue,
		ATMStrike:       record.ATMStrike,
		PutCallRatio:    record.PutCallRatio,
		WindowSize:      record.WindowSize,
	}

	if err := s.db.Create(dbCycle).Error; err != nil {
		return fmt.Errorf("failed to save poll cycle: %w", err)
	}

	return nil
}

// ListRecentCycles returns the most recent poll cycles, newest first
func (s *LocalStorage) ListRecentCycles(limit int) ([]*interfaces.PollCycleRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var dbCycles []models.DBPollCycle
	if err := s.db.Order("started_at DESC").Limit(limit).Find(&dbCycles).Error; err != nil {
		return nil, fmt.Errorf("failed to list poll cycles: %w", err)
	}

	cycles := make([]*interfaces.PollCycleRecord, len(dbCycles))
	for i, dbCycle := range dbCycles {
		cycles[i] = &interfaces.PollCycleRecord{
			Symbol:          dbCycle.Symbol,
			StartedAt:       dbCycle.StartedAt,
			DurationMs:      dbCycle.DurationMs,
			Success:         dbCycle.Success,
			ErrorMessage:    dbCycle.ErrorMessage,
			Trigger:         dbCycle.Trigger,
			UnderlyingValue: dbCycle.UnderlyingValue,
			ATMStrike:       dbCycle.ATMStrike,
			PutCallRatio:    dbCycle.PutCallRatio,
			WindowSize:      dbCycle.WindowSize,
		}
	}

	return cycles, nil
}

// CycleStats summarizes stored poll cycles
func (s *LocalStorage) CycleStats() (*interfaces.CycleStats, error) {
	stats := &interfaces.CycleStats{}

	if err := s.db.Model(&models.DBPollCycle{}).Count(&stats.TotalCycles).Error; err != nil {
		return nil, fmt.Errorf("failed to count poll cycles: %w", err)
	}

	if err := s.db.Model(&models.DBPollCycle{}).Where("success = ?", false).Count(&stats.FailedCycles).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed cycles: %w", err)
	}

	var last models.DBPollCycle
	err := s.db.Where("success = ?", true).Order("started_at DESC").First(&last).Error
	if err == nil {
		stats.LastSuccessAt = &last.StartedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find last successful cycle: %w", err)
	}

	return stats, nil
}
