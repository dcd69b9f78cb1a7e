package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guest is the directory entry a reservation or waitlist request refers to.
type Guest struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FullName  string    `gorm:"column:full_name;not null"`
	Email     *string   `gorm:"column:email;uniqueIndex"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *Guest) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}
