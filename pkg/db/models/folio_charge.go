package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FolioCharge is a point-of-sale item billed to an in-house stay.
type FolioCharge struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID uuid.UUID       `gorm:"column:reservation_id;type:uuid;not null;index"`
	ItemName      string          `gorm:"column:item_name;not null"`
	Category      string          `gorm:"column:category;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Description   *string         `gorm:"column:description"`
	CreatedBy     string          `gorm:"column:created_by;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (c *FolioCharge) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
