package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// Staff is an employee account; Username is the actor label on every mutation.
type Staff struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Username     string          `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Role         enums.StaffRole `gorm:"column:role;type:staff_role;not null"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
