package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is a single unit of work: a shell command string plus the bookkeeping
// needed to run it at most once at a time, retry it with backoff, and park it
// in the DLQ when its retry budget is exhausted.
type Job struct {
	ID          string `gorm:"primaryKey;type:text"`
	Command     string `gorm:"type:text;not null"`
	State       string `gorm:"type:text;not null;default:'pending';index"`
	Priority    int    `gorm:"not null;default:0"`
	Attempts    int    `gorm:"not null;default:0"`
	MaxRetries  int    `gorm:"not null"`
	LockedBy    *int
	LockedUntil *time.Time
	RetryAt     *time.Time `gorm:"index"`
	RunAt       *time.Time
	LastError   *string `gorm:"type:text"`
	StdoutLog   string  `gorm:"type:text"`
	StderrLog   string  `gorm:"type:text"`
	ExitCode    *int
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// DLQEntry is the canonical index of permanently failed jobs. The job row
// itself stays in the jobs table with state 'dead'; the payload column keeps
// a JSON snapshot of the row as it looked when it was moved.
type DLQEntry struct {
	ID      string         `gorm:"primaryKey;type:text"`
	JobID   string         `gorm:"not null;index"`
	Reason  string         `gorm:"type:text;not null"`
	MovedAt time.Time      `gorm:"not null"`
	Payload datatypes.JSON `gorm:"type:json"`
}

func (DLQEntry) TableName() string { return "dlq" }

// ConfigEntry is one row of the string-keyed runtime configuration table.
type ConfigEntry struct {
	Key   string `gorm:"primaryKey;type:text"`
	Value string `gorm:"type:text;not null"`
}

func (ConfigEntry) TableName() string { return "config" }
