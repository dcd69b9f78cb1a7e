package models

import "time"

// SystemSetting is a keyed runtime policy value managed by staff.
type SystemSetting struct {
	Key         string    `gorm:"column:setting_key;primaryKey"`
	Value       string    `gorm:"column:value;not null"`
	Description *string   `gorm:"column:description"`
	UpdatedBy   *string   `gorm:"column:updated_by"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
