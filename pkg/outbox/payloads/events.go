package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// ReservationEvent is emitted on every reservation lifecycle transition.
type ReservationEvent struct {
	ReservationID     uuid.UUID               `json:"reservation_id"`
	ReservationNumber string                  `json:"reservation_number"`
	GuestID           uuid.UUID               `json:"guest_id"`
	RoomID            *uuid.UUID              `json:"room_id,omitempty"`
	CheckInDate       string                  `json:"check_in_date"`
	CheckOutDate      string                  `json:"check_out_date"`
	Status            enums.ReservationStatus `json:"status"`
	TotalAmount       string                  `json:"total_amount"`
	PaidAmount        string                  `json:"paid_amount"`
}

// PaymentEvent reports a payment or refund outcome to the notification collaborator.
type PaymentEvent struct {
	TransactionID         uuid.UUID           `json:"transaction_id"`
	ReservationID         uuid.UUID           `json:"reservation_id"`
	Type                  enums.PaymentType   `json:"type"`
	Status                enums.PaymentStatus `json:"status"`
	Amount                string              `json:"amount"`
	ProviderTransactionID *string             `json:"provider_transaction_id,omitempty"`
	Note                  *string             `json:"note,omitempty"`
}

// WaitlistEvent is emitted when a waitlist entry becomes eligible or is converted.
type WaitlistEvent struct {
	WaitlistID    uuid.UUID            `json:"waitlist_id"`
	GuestID       uuid.UUID            `json:"guest_id"`
	Status        enums.WaitlistStatus `json:"status"`
	CheckInDate   string               `json:"check_in_date"`
	CheckOutDate  string               `json:"check_out_date"`
	RoomType      *string              `json:"room_type,omitempty"`
	ContactEmail  *string              `json:"contact_email,omitempty"`
	ContactPhone  *string              `json:"contact_phone,omitempty"`
	RoomID        *uuid.UUID           `json:"room_id,omitempty"`
	ReservationID *uuid.UUID           `json:"reservation_id,omitempty"`
}

// ConsumptionDeductionFailedEvent records a cleaning deduction that needs reconciliation.
type ConsumptionDeductionFailedEvent struct {
	RoomID          uuid.UUID `json:"room_id"`
	RoomNumber      string    `json:"room_number"`
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Quantity        string    `json:"quantity"`
	Error           string    `json:"error"`
	FailedAt        time.Time `json:"failed_at"`
}

// InventoryLowStockEvent signals that an item fell to its safety threshold.
type InventoryLowStockEvent struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Name            string    `json:"name"`
	CurrentQuantity string    `json:"current_quantity"`
	SafetyThreshold string    `json:"safety_threshold"`
}
