package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvestmentStatusPending   = "pending"
	InvestmentStatusActive    = "active"
	InvestmentStatusSuspended = "suspended"
	InvestmentStatusCompleted = "completed"
	InvestmentStatusRejected  = "rejected"
)

// Investment is a single unit-purchase with its own principal, rate, and
// accrual window. CycleStart/CycleEnd are only meaningful while the status is
// active or suspended; pending investments have no running window.
type Investment struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uint64  `gorm:"not null;index" json:"owner_id"`
	PlanID    *uint64 `gorm:"index" json:"plan_id,omitempty"`
	Reference string  `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`

	Principal decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"principal"`

	// ROIPct, when nil, falls back to the owner's profile default rate and
	// finally the configured engine default.
	ROIPct    *decimal.Decimal `gorm:"column:roi_pct;type:numeric(5,2)" json:"roi_pct,omitempty"`
	CycleDays int              `gorm:"not null;default:7" json:"cycle_days"`

	CycleStart *time.Time `gorm:"type:timestamptz" json:"cycle_start,omitempty"`
	CycleEnd   *time.Time `gorm:"type:timestamptz;index" json:"cycle_end,omitempty"`

	Status string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (Investment) TableName() string {
	return "investments"
}

// Accruable reports whether the investment is in a state that can realize
// accrual (manual completion is legal from both).
func (i *Investment) Accruable() bool {
	if i == nil {
		return false
	}
	return i.Status == InvestmentStatusActive || i.Status == InvestmentStatusSuspended
}

// ValidStatus reports whether s is one of the recognized lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case InvestmentStatusPending, InvestmentStatusActive, InvestmentStatusSuspended,
		InvestmentStatusCompleted, InvestmentStatusRejected:
		return true
	}
	return false
}
