package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationSeverityInfo    = "info"
	NotificationSeverityWarning = "warning"
)

// Notification is a fire-and-forget message to an account. Insert failures
// are logged by callers, never propagated into the financial path.
type Notification struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID uint64 `gorm:"not null;index" json:"owner_id"`

	Title    string `gorm:"type:varchar(191);not null" json:"title"`
	Message  string `gorm:"type:text" json:"message"`
	Severity string `gorm:"type:varchar(20);not null;default:'info'" json:"severity"`

	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	ReadAt    *time.Time `gorm:"type:timestamptz" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
