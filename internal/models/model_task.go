package models

import (
	"time"

	"github.com/fatflowers/giveledger/pkg/types"
	"gorm.io/datatypes"
)

// Task is a row of the scheduler outbox. Rows are written in the same
// transaction as the change that caused them and claimed by workers with a
// lease (LockedUntil).
type Task struct {
	ID          string           `gorm:"column:id;type:varchar(26);primary_key" json:"id"`
	Name        string           `gorm:"column:name;type:varchar(64);not null" json:"name"`
	DedupKey    string           `gorm:"column:dedup_key;type:varchar(255);not null;uniqueIndex" json:"dedup_key"`
	Args        datatypes.JSON   `gorm:"column:args;type:jsonb;not null;default:'{}'" json:"args"`
	Status      types.TaskStatus `gorm:"column:status;type:varchar(16);not null;index:idx_status_run_at,priority:1" json:"status"`
	Attempts    int              `gorm:"column:attempts;not null;default:0" json:"attempts"`
	MaxAttempts int              `gorm:"column:max_attempts;not null;default:10" json:"max_attempts"`
	RunAt       time.Time        `gorm:"column:run_at;not null;index:idx_status_run_at,priority:2" json:"run_at"`
	LockedUntil *time.Time       `gorm:"column:locked_until" json:"locked_until"`
	LastError   *string          `gorm:"column:last_error;type:text" json:"last_error"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Task) TableName() string { return "task" }
