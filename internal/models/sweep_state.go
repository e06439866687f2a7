package models

import (
	"time"

	"gorm.io/datatypes"
)

// SweepState tracks the outcome of sweep runs per scope so operators can see
// when the last run happened and what it did.
type SweepState struct {
	Scope         string         `gorm:"primaryKey;type:text" json:"scope"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz" json:"last_attempt_at,omitempty"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz" json:"last_success_at,omitempty"`
	LastError     *string        `gorm:"type:text" json:"last_error,omitempty"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb" json:"stats,omitempty"`
}

func (SweepState) TableName() string {
	return "sweep_state"
}
