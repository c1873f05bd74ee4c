package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionItem captures one purchased service or product attached to a
// transaction record. StaffTipSplit and StaffTipCollected are derived at
// checkout time by the allocator, never supplied by callers.
type TransactionItem struct {
	ID                string          `gorm:"column:id;primaryKey"`
	TransactionID     string          `gorm:"column:transaction_id;not null;index"`
	ServiceID         *string         `gorm:"column:service_id;index"`
	ServiceName       string          `gorm:"column:service_name;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StaffName         *string         `gorm:"column:staff_name"`
	StaffTipSplit     decimal.Decimal `gorm:"column:staff_tip_split;type:numeric(10,2);not null;default:0"`
	StaffTipCollected bool            `gorm:"column:staff_tip_collected;not null;default:false"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
