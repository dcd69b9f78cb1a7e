package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// Reservation is a guest's claim on a room (or a room type) for a date range.
// PaidAmount caches the payment ledger and is re-derivable from it.
type Reservation struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ReservationNumber  string                  `gorm:"column:reservation_number;not null;uniqueIndex"`
	GuestID            uuid.UUID               `gorm:"column:guest_id;type:uuid;not null;index"`
	RoomID             *uuid.UUID              `gorm:"column:room_id;type:uuid;index:idx_reservations_room_range"`
	PreferredRoomType  *string                 `gorm:"column:preferred_room_type"`
	CheckInDate        time.Time               `gorm:"column:check_in_date;type:date;not null;index:idx_reservations_room_range"`
	CheckOutDate       time.Time               `gorm:"column:check_out_date;type:date;not null;index:idx_reservations_room_range"`
	NumberOfGuests     int                     `gorm:"column:number_of_guests;not null"`
	TotalAmount        decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaidAmount         decimal.Decimal         `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`
	Status             enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;index"`
	SpecialRequests    *string                 `gorm:"column:special_requests"`
	CancellationReason *string                 `gorm:"column:cancellation_reason"`
	CreatedBy          string                  `gorm:"column:created_by;not null"`
	CheckedInAt        *time.Time              `gorm:"column:checked_in_at"`
	CheckedOutAt       *time.Time              `gorm:"column:checked_out_at"`
	CancelledAt        *time.Time              `gorm:"column:cancelled_at"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Reservation) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// ReservationHistory is a write-once audit entry for one reservation mutation.
type ReservationHistory struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID uuid.UUID           `gorm:"column:reservation_id;type:uuid;not null;index"`
	Action        enums.HistoryAction `gorm:"column:action;type:history_action;not null"`
	OldValue      *string             `gorm:"column:old_value"`
	NewValue      *string             `gorm:"column:new_value"`
	Description   string              `gorm:"column:description;not null"`
	Operator      string              `gorm:"column:operator;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (ReservationHistory) TableName() string {
	return "reservation_history"
}

func (h *ReservationHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// RoomCheckInspection is the immutable pre-checkout inspection record.
type RoomCheckInspection struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID     uuid.UUID `gorm:"column:reservation_id;type:uuid;not null;index"`
	RoomID            uuid.UUID `gorm:"column:room_id;type:uuid;not null"`
	FacilitiesOK      bool      `gorm:"column:facilities_ok;not null"`
	HasDamage         bool      `gorm:"column:has_damage;not null"`
	DamageDescription *string   `gorm:"column:damage_description"`
	ItemsLeftBehind   bool      `gorm:"column:items_left_behind;not null"`
	ItemsDescription  *string   `gorm:"column:items_description"`
	Notes             *string   `gorm:"column:notes"`
	Inspector         string    `gorm:"column:inspector;not null"`
	InspectedAt       time.Time `gorm:"column:inspected_at;not null"`
}

func (i *RoomCheckInspection) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Advisory reports whether the inspection found something worth surfacing on the bill.
func (i RoomCheckInspection) Advisory() bool {
	return i.HasDamage || i.ItemsLeftBehind || !i.FacilitiesOK
}
