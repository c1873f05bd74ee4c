package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Transaction is one persisted payment record for a sale. A sale paid with
// a single instrument produces one row; split sales produce sibling rows
// sharing the originating id prefix ("{id}", "{id}-2", "{id}-3", ...).
type Transaction struct {
	ID           string            `gorm:"column:id;primaryKey"`
	BookingID    *string           `gorm:"column:booking_id;index"`
	CustomerID   *string           `gorm:"column:customer_id;index"`
	StaffName    *string           `gorm:"column:staff_name"`
	Method       string            `gorm:"column:method;not null"`
	Status       string            `gorm:"column:status;not null;default:'completed'"`
	SortIndex    int               `gorm:"column:sort_index;not null;default:1"`
	Subtotal     decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax          decimal.Decimal   `gorm:"column:tax;type:numeric(10,2);not null;default:0"`
	Tip          decimal.Decimal   `gorm:"column:tip;type:numeric(10,2);not null;default:0"`
	TotalPaid    decimal.Decimal   `gorm:"column:total_paid;type:numeric(10,2);not null"`
	ServiceNames pq.StringArray    `gorm:"column:service_names;type:text[]"`
	Items        []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
