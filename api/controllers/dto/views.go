// Package dto holds the JSON shapes the API returns. Persistence models stay
// free of wire tags; every handler maps through the constructors here.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/internal/billing"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

const dateLayout = "2006-01-02"

type Room struct {
	ID          uuid.UUID        `json:"id"`
	RoomNumber  string           `json:"room_number"`
	RoomType    string           `json:"room_type"`
	Price       decimal.Decimal  `json:"price"`
	Capacity    int              `json:"capacity"`
	Floor       *int             `json:"floor,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      enums.RoomStatus `json:"status"`
	IsActive    bool             `json:"is_active"`
	Version     int64            `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NewRoom(r models.Room) Room {
	return Room{
		ID:          r.ID,
		RoomNumber:  r.RoomNumber,
		RoomType:    r.RoomType,
		Price:       r.Price,
		Capacity:    r.Capacity,
		Floor:       r.Floor,
		Description: r.Description,
		Status:      r.Status,
		IsActive:    r.IsActive,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func NewRooms(rooms []models.Room) []Room {
	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, NewRoom(r))
	}
	return out
}

// RoomStatusResult carries the stock deduction summary when a status change
// completed a cleaning.
type RoomStatusResult struct {
	Room     Room                `json:"room"`
	Cleaning *types.BatchSummary `json:"cleaning,omitempty"`
}

type Guest struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGuest(g models.Guest) Guest {
	return Guest{
		ID:        g.ID,
		FullName:  g.FullName,
		Email:     g.Email,
		Phone:     g.Phone,
		CreatedAt: g.CreatedAt,
	}
}

type Reservation struct {
	ID                 uuid.UUID               `json:"id"`
	ReservationNumber  string                  `json:"reservation_number"`
	GuestID            uuid.UUID               `json:"guest_id"`
	RoomID             *uuid.UUID              `json:"room_id,omitempty"`
	PreferredRoomType  *string                 `json:"preferred_room_type,omitempty"`
	CheckInDate        string                  `json:"check_in_date"`
	CheckOutDate       string                  `json:"check_out_date"`
	NumberOfGuests     int                     `json:"number_of_guests"`
	TotalAmount        decimal.Decimal         `json:"total_amount"`
	PaidAmount         decimal.Decimal         `json:"paid_amount"`
	Status             enums.ReservationStatus `json:"status"`
	SpecialRequests    *string                 `json:"special_requests,omitempty"`
	CancellationReason *string                 `json:"cancellation_reason,omitempty"`
	CreatedBy          string                  `json:"created_by"`
	CheckedInAt        *time.Time              `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time              `json:"checked_out_at,omitempty"`
	CancelledAt        *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

func NewReservation(r models.Reservation) Reservation {
	return Reservation{
		ID:                 r.ID,
		ReservationNumber:  r.ReservationNumber,
		GuestID:            r.GuestID,
		RoomID:             r.RoomID,
		PreferredRoomType:  r.PreferredRoomType,
		CheckInDate:        r.CheckInDate.Format(dateLayout),
		CheckOutDate:       r.CheckOutDate.Format(dateLayout),
		NumberOfGuests:     r.NumberOfGuests,
		TotalAmount:        r.TotalAmount,
		PaidAmount:         r.PaidAmount,
		Status:             r.Status,
		SpecialRequests:    r.SpecialRequests,
		CancellationReason: r.CancellationReason,
		CreatedBy:          r.CreatedBy,
		CheckedInAt:        r.CheckedInAt,
		CheckedOutAt:       r.CheckedOutAt,
		CancelledAt:        r.CancelledAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func NewReservations(items []models.Reservation) []Reservation {
	out := make([]Reservation, 0, len(items))
	for _, r := range items {
		out = append(out, NewReservation(r))
	}
	return out
}

type ReservationPage struct {
	Items  []Reservation `json:"items"`
	Cursor string        `json:"cursor,omitempty"`
}

type HistoryEntry struct {
	ID          uuid.UUID           `json:"id"`
	Action      enums.HistoryAction `json:"action"`
	OldValue    *string             `json:"old_value,omitempty"`
	NewValue    *string             `json:"new_value,omitempty"`
	Description string              `json:"description"`
	Operator    string              `json:"operator"`
	CreatedAt   time.Time           `json:"created_at"`
}

func NewHistory(entries []models.ReservationHistory) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryEntry{
			ID:          h.ID,
			Action:      h.Action,
			OldValue:    h.OldValue,
			NewValue:    h.NewValue,
			Description: h.Description,
			Operator:    h.Operator,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out
}

type Inspection struct {
	ID                uuid.UUID `json:"id"`
	ReservationID     uuid.UUID `json:"reservation_id"`
	RoomID            uuid.UUID `json:"room_id"`
	FacilitiesOK      bool      `json:"facilities_ok"`
	HasDamage         bool      `json:"has_damage"`
	DamageDescription *string   `json:"damage_description,omitempty"`
	ItemsLeftBehind   bool      `json:"items_left_behind"`
	ItemsDescription  *string   `json:"items_description,omitempty"`
	Notes             *string   `json:"notes,omitempty"`
	Inspector         string    `json:"inspector"`
	InspectedAt       time.Time `json:"inspected_at"`
}

func NewInspection(i *models.RoomCheckInspection) *Inspection {
	if i == nil {
		return nil
	}
	return &Inspection{
		ID:                i.ID,
		ReservationID:     i.ReservationID,
		RoomID:            i.RoomID,
		FacilitiesOK:      i.FacilitiesOK,
		HasDamage:         i.HasDamage,
		DamageDescription: i.DamageDescription,
		ItemsLeftBehind:   i.ItemsLeftBehind,
		ItemsDescription:  i.ItemsDescription,
		Notes:             i.Notes,
		Inspector:         i.Inspector,
		InspectedAt:       i.InspectedAt,
	}
}

type Bill struct {
	ReservationID uuid.UUID          `json:"reservation_id"`
	Settlement    billing.Settlement `json:"settlement"`
	FolioTotal    decimal.Decimal    `json:"folio_total"`
	Inspection    *Inspection        `json:"inspection,omitempty"`
	Advisory      bool               `json:"advisory"`
}

func NewBill(reservationID uuid.UUID, settlement billing.Settlement, folioTotal decimal.Decimal, inspection *models.RoomCheckInspection, advisory bool) Bill {
	return Bill{
		ReservationID: reservationID,
		Settlement:    settlement,
		FolioTotal:    folioTotal,
		Inspection:    NewInspection(inspection),
		Advisory:      advisory,
	}
}

type CheckOut struct {
	Reservation Reservation     `json:"reservation"`
	Bill        Bill            `json:"bill"`
	Collected   decimal.Decimal `json:"collected"`
}

type Cancellation struct {
	Reservation Reservation         `json:"reservation"`
	Refund      billing.RefundQuote `json:"refund"`
}

type Payment struct {
	ID                    uuid.UUID           `json:"id"`
	ReservationID         uuid.UUID           `json:"reservation_id"`
	Amount                decimal.Decimal     `json:"amount"`
	Type                  enums.PaymentType   `json:"type"`
	Status                enums.PaymentStatus `json:"status"`
	Method                enums.PaymentMethod `json:"method"`
	ProviderTransactionID *string             `json:"provider_transaction_id,omitempty"`
	RetryOf               *uuid.UUID          `json:"retry_of,omitempty"`
	Note                  *string             `json:"note,omitempty"`
	CreatedBy             string              `json:"created_by"`
	SettledAt             *time.Time          `json:"settled_at,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

func NewPayment(p models.PaymentTransaction) Payment {
	return Payment{
		ID:                    p.ID,
		ReservationID:         p.ReservationID,
		Amount:                p.Amount,
		Type:                  p.Type,
		Status:                p.Status,
		Method:                p.Method,
		ProviderTransactionID: p.ProviderTransactionID,
		RetryOf:               p.RetryOf,
		Note:                  p.Note,
		CreatedBy:             p.CreatedBy,
		SettledAt:             p.SettledAt,
		CreatedAt:             p.CreatedAt,
	}
}

func NewPayments(items []models.PaymentTransaction) []Payment {
	out := make([]Payment, 0, len(items))
	for _, p := range items {
		out = append(out, NewPayment(p))
	}
	return out
}

type FolioCharge struct {
	ID            uuid.UUID       `json:"id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	ItemName      string          `json:"item_name"`
	Category      string          `json:"category"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Description   *string         `json:"description,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewFolioCharge(c models.FolioCharge) FolioCharge {
	return FolioCharge{
		ID:            c.ID,
		ReservationID: c.ReservationID,
		ItemName:      c.ItemName,
		Category:      c.Category,
		Quantity:      c.Quantity,
		UnitPrice:     c.UnitPrice,
		TotalAmount:   c.TotalAmount,
		Description:   c.Description,
		CreatedBy:     c.CreatedBy,
		CreatedAt:     c.CreatedAt,
	}
}

func NewFolioCharges(items []models.FolioCharge) []FolioCharge {
	out := make([]FolioCharge, 0, len(items))
	for _, c := range items {
		out = append(out, NewFolioCharge(c))
	}
	return out
}

type InventoryItem struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	SafetyThreshold decimal.Decimal `json:"safety_threshold"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LowStock        bool            `json:"low_stock"`
	IsActive        bool            `json:"is_active"`
	Version         int64           `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewInventoryItem(i models.InventoryItem) InventoryItem {
	return InventoryItem{
		ID:              i.ID,
		Name:            i.Name,
		Category:        i.Category,
		Unit:            i.Unit,
		CurrentQuantity: i.CurrentQuantity,
		SafetyThreshold: i.SafetyThreshold,
		UnitCost:        i.UnitCost,
		LowStock:        i.BelowSafetyLevel(),
		IsActive:        i.IsActive,
		Version:         i.Version,
		UpdatedAt:       i.UpdatedAt,
	}
}

func NewInventoryItems(items []models.InventoryItem) []InventoryItem {
	out := make([]InventoryItem, 0, len(items))
	for _, i := range items {
		out = append(out, NewInventoryItem(i))
	}
	return out
}

type InventoryTransaction struct {
	ID            uuid.UUID                      `json:"id"`
	ItemID        uuid.UUID                      `json:"item_id"`
	Type          enums.InventoryTransactionType `json:"type"`
	Quantity      decimal.Decimal                `json:"quantity"`
	UnitPrice     decimal.Decimal                `json:"unit_price"`
	TotalAmount   decimal.Decimal                `json:"total_amount"`
	QuantityAfter decimal.Decimal                `json:"quantity_after"`
	UnitCostAfter decimal.Decimal                `json:"unit_cost_after"`
	Supplier      *string                        `json:"supplier,omitempty"`
	Reason        *string                        `json:"reason,omitempty"`
	Reference     *string                        `json:"reference,omitempty"`
	CreatedBy     string                         `json:"created_by"`
	CreatedAt     time.Time                      `json:"created_at"`
}

func NewInventoryTransaction(t models.InventoryTransaction) InventoryTransaction {
	return InventoryTransaction{
		ID:            t.ID,
		ItemID:        t.InventoryItemID,
		Type:          t.Type,
		Quantity:      t.Quantity,
		UnitPrice:     t.UnitPrice,
		TotalAmount:   t.TotalAmount,
		QuantityAfter: t.QuantityAfter,
		UnitCostAfter: t.UnitCostAfter,
		Supplier:      t.Supplier,
		Reason:        t.Reason,
		Reference:     t.Reference,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
	}
}

func NewInventoryTransactions(items []models.InventoryTransaction) []InventoryTransaction {
	out := make([]InventoryTransaction, 0, len(items))
	for _, t := range items {
		out = append(out, NewInventoryTransaction(t))
	}
	return out
}

type StockMovement struct {
	Item        InventoryItem        `json:"item"`
	Transaction InventoryTransaction `json:"transaction"`
}

type StandardConsumption struct {
	ID          uuid.UUID       `json:"id"`
	RoomID      uuid.UUID       `json:"room_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Description *string         `json:"description,omitempty"`
}

func NewStandardConsumption(c models.RoomStandardConsumption) StandardConsumption {
	return StandardConsumption{
		ID:          c.ID,
		RoomID:      c.RoomID,
		ItemID:      c.InventoryItemID,
		Quantity:    c.StandardQuantity,
		Description: c.Description,
	}
}

func NewStandardConsumptions(items []models.RoomStandardConsumption) []StandardConsumption {
	out := make([]StandardConsumption, 0, len(items))
	for _, c := range items {
		out = append(out, NewStandardConsumption(c))
	}
	return out
}

type WaitlistEntry struct {
	ID                uuid.UUID            `json:"id"`
	GuestID           uuid.UUID            `json:"guest_id"`
	CheckInDate       string               `json:"check_in_date"`
	CheckOutDate      string               `json:"check_out_date"`
	PreferredRoomType *string              `json:"preferred_room_type,omitempty"`
	NumberOfGuests    int                  `json:"number_of_guests"`
	ContactPhone      *string              `json:"contact_phone,omitempty"`
	ContactEmail      *string              `json:"contact_email,omitempty"`
	Notes             *string              `json:"notes,omitempty"`
	Status            enums.WaitlistStatus `json:"status"`
	NotifiedAt        *time.Time           `json:"notified_at,omitempty"`
	ReservationID     *uuid.UUID           `json:"reservation_id,omitempty"`
	CreatedBy         string               `json:"created_by"`
	CreatedAt         time.Time            `json:"created_at"`
}

func NewWaitlistEntry(w models.WaitlistEntry) WaitlistEntry {
	return WaitlistEntry{
		ID:                w.ID,
		GuestID:           w.GuestID,
		CheckInDate:       w.CheckInDate.Format(dateLayout),
		CheckOutDate:      w.CheckOutDate.Format(dateLayout),
		PreferredRoomType: w.PreferredRoomType,
		NumberOfGuests:    w.NumberOfGuests,
		ContactPhone:      w.ContactPhone,
		ContactEmail:      w.ContactEmail,
		Notes:             w.Notes,
		Status:            w.Status,
		NotifiedAt:        w.NotifiedAt,
		ReservationID:     w.ReservationID,
		CreatedBy:         w.CreatedBy,
		CreatedAt:         w.CreatedAt,
	}
}

func NewWaitlistEntries(items []models.WaitlistEntry) []WaitlistEntry {
	out := make([]WaitlistEntry, 0, len(items))
	for _, w := range items {
		out = append(out, NewWaitlistEntry(w))
	}
	return out
}

type WaitlistConversion struct {
	Entry       WaitlistEntry `json:"entry"`
	Reservation Reservation   `json:"reservation"`
}

type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedBy   *string   `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSetting(s models.SystemSetting) Setting {
	return Setting{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedBy:   s.UpdatedBy,
		UpdatedAt:   s.UpdatedAt,
	}
}

func NewSettings(items []models.SystemSetting) []Setting {
	out := make([]Setting, 0, len(items))
	for _, s := range items {
		out = append(out, NewSetting(s))
	}
	return out
}

// Staff never exposes the password hash.
type Staff struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Role        enums.StaffRole `json:"role"`
	IsActive    bool            `json:"is_active"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewStaff(s models.Staff) Staff {
	return Staff{
		ID:          s.ID,
		Username:    s.Username,
		Role:        s.Role,
		IsActive:    s.IsActive,
		LastLoginAt: s.LastLoginAt,
		CreatedAt:   s.CreatedAt,
	}
}

func NewStaffList(items []models.Staff) []Staff {
	out := make([]Staff, 0, len(items))
	for _, s := range items {
		out = append(out, NewStaff(s))
	}
	return out
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	Staff        Staff     `json:"staff"`
}
