package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when the caller did not provide one, so rows
// can be inserted on databases without gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Room{},
		&Guest{},
		&Reservation{},
		&ReservationHistory{},
		&RoomCheckInspection{},
		&PaymentTransaction{},
		&InventoryItem{},
		&InventoryTransaction{},
		&RoomStandardConsumption{},
		&WaitlistEntry{},
		&SystemSetting{},
		&FolioCharge{},
		&Staff{},
		&OutboxEvent{},
	}
}
