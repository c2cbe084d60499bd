package models

import (
	"time"

	"gorm.io/gorm"
)

// DBPollCycle represents one poll cycle's outcome in the database.
// Snapshots and derived windows are never stored; this is operational
// metadata only.
type DBPollCycle struct {
	gorm.Model
	Symbol          string    `gorm:"index"`
	StartedAt       time.Time `gorm:"index"`
	DurationMs      int64
	Success         bool      `gorm:"index"`
	ErrorMessage    string
	Trigger         string // "timer" or "manual"
	UnderlyingValue float64
	ATMStrike       float64
	PutCallRatio    float64
	WindowSize      int
}

// TableName overrides for cleaner table names
func (DBPollCycle) TableName() string {
	return "poll_cycles"
}
