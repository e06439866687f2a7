package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is the owning account an investment credits into. Balance is the
// liquid, spendable total; TotalROI is a lifetime-earned counter and is never
// debited.
type Profile struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"type:varchar(191);not null;uniqueIndex" json:"email"`
	Role  string `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	Balance  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"balance"`
	TotalROI decimal.Decimal `gorm:"column:total_roi;type:numeric(15,2);not null;default:0" json:"total_roi"`

	// DefaultROIPct is the profile-level fallback rate applied when an
	// investment carries no rate of its own.
	DefaultROIPct *decimal.Decimal `gorm:"column:default_roi_pct;type:numeric(5,2)" json:"default_roi_pct,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
