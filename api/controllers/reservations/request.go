package reservations

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/reservations"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

type bookingRequest struct {
	GuestID           string  `json:"guest_id" validate:"required,uuid"`
	RoomID            *string `json:"room_id,omitempty" validate:"omitempty,uuid"`
	PreferredRoomType *string `json:"preferred_room_type,omitempty" validate:"omitempty,max=32"`
	CheckInDate       string  `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate      string  `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	NumberOfGuests    int     `json:"number_of_guests" validate:"required,min=1,max=20"`
	SpecialRequests   *string `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
}

// toInput converts a validated request; dates were checked by the validator.
func (b bookingRequest) toInput() reservations.CreateInput {
	checkIn, _ := validators.ParseDate("check_in_date", b.CheckInDate)
	checkOut, _ := validators.ParseDate("check_out_date", b.CheckOutDate)
	input := reservations.CreateInput{
		GuestID:        uuid.MustParse(b.GuestID),
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		NumberOfGuests: b.NumberOfGuests,
	}
	if b.RoomID != nil {
		roomID := uuid.MustParse(*b.RoomID)
		input.RoomID = &roomID
	}
	if b.PreferredRoomType != nil {
		if roomType := strings.TrimSpace(*b.PreferredRoomType); roomType != "" {
			input.PreferredRoomType = &roomType
		}
	}
	input.SpecialRequests = sanitize(b.SpecialRequests, 1000)
	return input
}

type walkInRequest struct {
	bookingRequest
	CollectAmount decimal.Decimal `json:"collect_amount" validate:"gte=0"`
	Method        string          `json:"method" validate:"omitempty,oneof=CASH CARD BANK_TRANSFER ONLINE"`
}

type modifyRequest struct {
	CheckInDate    *string `json:"check_in_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOutDate   *string `json:"check_out_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RoomID         *string `json:"room_id,omitempty" validate:"omitempty,uuid"`
	RoomType       *string `json:"room_type,omitempty" validate:"omitempty,max=32"`
	NumberOfGuests *int    `json:"number_of_guests,omitempty" validate:"omitempty,min=1,max=20"`
}

func (m modifyRequest) toInput(id uuid.UUID) reservations.ModifyInput {
	input := reservations.ModifyInput{
		ReservationID:  id,
		RoomType:       m.RoomType,
		NumberOfGuests: m.NumberOfGuests,
	}
	if m.CheckInDate != nil {
		checkIn, _ := validators.ParseDate("check_in_date", *m.CheckInDate)
		input.CheckInDate = &checkIn
	}
	if m.CheckOutDate != nil {
		checkOut, _ := validators.ParseDate("check_out_date", *m.CheckOutDate)
		input.CheckOutDate = &checkOut
	}
	if m.RoomID != nil {
		roomID := uuid.MustParse(*m.RoomID)
		input.RoomID = &roomID
	}
	return input
}

type checkInRequest struct {
	CollectAmount decimal.Decimal `json:"collect_amount" validate:"gte=0"`
	Method        string          `json:"method" validate:"omitempty,oneof=CASH CARD BANK_TRANSFER ONLINE"`
}

type inspectRequest struct {
	FacilitiesOK      bool    `json:"facilities_ok"`
	HasDamage         bool    `json:"has_damage"`
	DamageDescription *string `json:"damage_description,omitempty" validate:"omitempty,max=1000"`
	ItemsLeftBehind   bool    `json:"items_left_behind"`
	ItemsDescription  *string `json:"items_description,omitempty" validate:"omitempty,max=1000"`
	Notes             *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (i inspectRequest) toInput(id uuid.UUID) reservations.InspectInput {
	return reservations.InspectInput{
		ReservationID:     id,
		FacilitiesOK:      i.FacilitiesOK,
		HasDamage:         i.HasDamage,
		DamageDescription: sanitize(i.DamageDescription, 1000),
		ItemsLeftBehind:   i.ItemsLeftBehind,
		ItemsDescription:  sanitize(i.ItemsDescription, 1000),
		Notes:             sanitize(i.Notes, 1000),
	}
}

type checkOutRequest struct {
	ExtraCharges  decimal.Decimal  `json:"extra_charges" validate:"gte=0"`
	CollectAmount *decimal.Decimal `json:"collect_amount,omitempty" validate:"omitempty,gte=0"`
	Method        string           `json:"method" validate:"omitempty,oneof=CASH CARD BANK_TRANSFER ONLINE"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type batchRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
	Reason string   `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func (b batchRequest) uuids() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.IDs))
	for _, raw := range b.IDs {
		ids = append(ids, uuid.MustParse(raw))
	}
	return ids
}

func paymentMethod(raw string) enums.PaymentMethod {
	if raw == "" {
		return enums.PaymentMethodCash
	}
	return enums.PaymentMethod(raw)
}

func sanitize(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}
