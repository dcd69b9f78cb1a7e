package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// WaitlistEntry is a request for a stay that could not be allocated yet.
type WaitlistEntry struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	GuestID           uuid.UUID            `gorm:"column:guest_id;type:uuid;not null;index"`
	CheckInDate       time.Time            `gorm:"column:check_in_date;type:date;not null"`
	CheckOutDate      time.Time            `gorm:"column:check_out_date;type:date;not null"`
	PreferredRoomType *string              `gorm:"column:preferred_room_type"`
	NumberOfGuests    int                  `gorm:"column:number_of_guests;not null"`
	ContactPhone      *string              `gorm:"column:contact_phone"`
	ContactEmail      *string              `gorm:"column:contact_email"`
	Notes             *string              `gorm:"column:notes"`
	Status            enums.WaitlistStatus `gorm:"column:status;type:waitlist_status;not null;index"`
	NotifiedAt        *time.Time           `gorm:"column:notified_at"`
	ReservationID     *uuid.UUID           `gorm:"column:reservation_id;type:uuid"`
	CreatedBy         string               `gorm:"column:created_by;not null"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

func (w *WaitlistEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
