package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// InventoryItem is a stock-keeping unit. CurrentQuantity and UnitCost are the
// cached projection of its InventoryTransaction ledger.
type InventoryItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;not null;uniqueIndex"`
	Category        string          `gorm:"column:category;not null"`
	Unit            string          `gorm:"column:unit;not null"`
	CurrentQuantity decimal.Decimal `gorm:"column:current_quantity;type:numeric(14,3);not null;default:0"`
	SafetyThreshold decimal.Decimal `gorm:"column:safety_threshold;type:numeric(14,3);not null;default:0"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	IsActive        bool            `gorm:"column:is_active;not null"`
	Version         int64           `gorm:"column:version;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// BelowSafetyLevel reports whether the item needs restocking.
func (i InventoryItem) BelowSafetyLevel() bool {
	return i.CurrentQuantity.LessThanOrEqual(i.SafetyThreshold)
}

// InventoryTransaction is an immutable stock movement. QuantityAfter and
// UnitCostAfter record the running totals at the time of posting.
type InventoryTransaction struct {
	ID              uuid.UUID                      `gorm:"column:id;type:uuid;primaryKey"`
	InventoryItemID uuid.UUID                      `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	Type            enums.InventoryTransactionType `gorm:"column:type;type:inventory_transaction_type;not null"`
	Quantity        decimal.Decimal                `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice       decimal.Decimal                `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal                `gorm:"column:total_amount;type:numeric(14,2);not null"`
	QuantityAfter   decimal.Decimal                `gorm:"column:quantity_after;type:numeric(14,3);not null"`
	UnitCostAfter   decimal.Decimal                `gorm:"column:unit_cost_after;type:numeric(12,2);not null"`
	Supplier        *string                        `gorm:"column:supplier"`
	Reason          *string                        `gorm:"column:reason"`
	Reference       *string                        `gorm:"column:reference"`
	CreatedBy       string                         `gorm:"column:created_by;not null"`
	CreatedAt       time.Time                      `gorm:"column:created_at;autoCreateTime"`
}

func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// RoomStandardConsumption lists what one cleaning of a room uses up.
type RoomStandardConsumption struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RoomID           uuid.UUID       `gorm:"column:room_id;type:uuid;not null;uniqueIndex:ux_room_consumption_item"`
	InventoryItemID  uuid.UUID       `gorm:"column:inventory_item_id;type:uuid;not null;uniqueIndex:ux_room_consumption_item"`
	StandardQuantity decimal.Decimal `gorm:"column:standard_quantity;type:numeric(14,3);not null"`
	Description      *string         `gorm:"column:description"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *RoomStandardConsumption) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
