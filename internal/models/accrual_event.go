package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccrualKindRenewal    = "renewal"
	AccrualKindCompletion = "completion"
	AccrualKindOverride   = "override"
)

// AccrualEvent is one "ROI applied" occurrence. The unique index on
// (investment_id, cycle_end) is what makes sweep credits idempotent: a second
// attempt to close out the same window conflicts instead of double-crediting.
type AccrualEvent struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	InvestmentID uint64 `gorm:"not null;uniqueIndex:ux_accrual_window" json:"investment_id"`
	OwnerID      uint64 `gorm:"not null;index" json:"owner_id"`
	Reference    string `gorm:"type:varchar(64);not null" json:"reference"`

	Amount decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Kind   string          `gorm:"type:varchar(20);not null;index" json:"kind"`

	// Window the event closed out.
	CycleStart time.Time `gorm:"type:timestamptz;not null" json:"cycle_start"`
	CycleEnd   time.Time `gorm:"type:timestamptz;not null;uniqueIndex:ux_accrual_window" json:"cycle_end"`

	ComputedAt time.Time `gorm:"type:timestamptz;not null" json:"computed_at"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime" json:"-"`
}

func (AccrualEvent) TableName() string {
	return "accrual_events"
}
