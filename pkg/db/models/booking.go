package models

import "time"

// Booking is the appointment a walk-in or scheduled sale settles against.
// PaymentStatus moves to "paid" when a checkout references the booking and
// is cleared again when the paying transaction is deleted.
type Booking struct {
	ID            string     `gorm:"column:id;primaryKey"`
	CustomerID    *string    `gorm:"column:customer_id;index"`
	CustomerName  *string    `gorm:"column:customer_name"`
	StaffName     *string    `gorm:"column:staff_name"`
	ServiceName   *string    `gorm:"column:service_name"`
	StartsAt      *time.Time `gorm:"column:starts_at;index"`
	Status        string     `gorm:"column:status;not null;default:'confirmed'"`
	PaymentStatus *string    `gorm:"column:payment_status"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
