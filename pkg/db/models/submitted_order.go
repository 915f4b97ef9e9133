package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmittedOrder is the local write-once audit record of an order payload the
// service posted upstream. It is never updated after creation; support tooling
// reads it when reconciling disputes.
type SubmittedOrder struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UpstreamOrderID string    `gorm:"index"`
	CustomerID      string    `gorm:"index;not null"`
	AddressID       int64     `gorm:"not null"`
	PaymentMethod   string    `gorm:"not null"`
	WarehouseID     string    `gorm:"index;not null"`
	WarehouseName   string
	SubtotalPaise   int64 `gorm:"not null"`
	DiscountPaise   int64 `gorm:"not null"`
	TaxPaise        int64 `gorm:"not null"`
	DeliveryPaise   int64 `gorm:"not null"`
	CODChargePaise  int64 `gorm:"not null"`
	GrandTotalPaise int64 `gorm:"not null"`
	PromoCode       *string
	Payload         string `gorm:"type:text;not null"`
	CreatedAt       time.Time
}

func (o *SubmittedOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (SubmittedOrder) TableName() string {
	return "submitted_orders"
}
