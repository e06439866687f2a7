package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionKindPurchase   = "purchase"
	TransactionKindRefund     = "refund"
	TransactionKindAccrual    = "accrual"
	TransactionKindCompletion = "completion"
	TransactionKindAdjustment = "adjustment"
)

// Transaction records one signed movement on a profile balance.
type Transaction struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID uint64 `gorm:"not null;index" json:"owner_id"`

	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Kind      string          `gorm:"type:varchar(20);not null;index" json:"kind"`
	Reference string          `gorm:"type:varchar(64);index" json:"reference"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
