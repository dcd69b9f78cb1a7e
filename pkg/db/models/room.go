package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// Room is a bookable unit. Version backs compare-and-swap updates.
type Room struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	RoomNumber  string           `gorm:"column:room_number;not null;uniqueIndex"`
	RoomType    string           `gorm:"column:room_type;not null;index"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Capacity    int              `gorm:"column:capacity;not null"`
	Floor       *int             `gorm:"column:floor"`
	Description *string          `gorm:"column:description"`
	Status      enums.RoomStatus `gorm:"column:status;type:room_status;not null"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	Version     int64            `gorm:"column:version;not null;default:0"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
