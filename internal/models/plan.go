package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlanStatusActive   = "active"
	PlanStatusInactive = "inactive"
)

// Plan is a purchasable investment product. Rate and cycle length are frozen
// into the investment at purchase time.
type Plan struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`

	MinAmount decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"min_amount"`
	MaxAmount decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"max_amount"`
	ROIPct    decimal.Decimal `gorm:"column:roi_pct;type:numeric(5,2);not null" json:"roi_pct"`
	CycleDays int             `gorm:"not null;default:7" json:"cycle_days"`

	Status string `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (Plan) TableName() string {
	return "plans"
}
