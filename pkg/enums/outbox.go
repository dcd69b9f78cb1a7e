package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateReservation OutboxAggregateType = "reservation"
	AggregatePayment     OutboxAggregateType = "payment"
	AggregateWaitlist    OutboxAggregateType = "waitlist"
	AggregateInventory   OutboxAggregateType = "inventory"
	AggregateRoom        OutboxAggregateType = "room"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateReservation,
	AggregatePayment,
	AggregateWaitlist,
	AggregateInventory,
	AggregateRoom,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventReservationCreated         OutboxEventType = "reservation_created"
	EventReservationConfirmed       OutboxEventType = "reservation_confirmed"
	EventReservationModified        OutboxEventType = "reservation_modified"
	EventReservationCheckedIn       OutboxEventType = "reservation_checked_in"
	EventReservationCheckedOut      OutboxEventType = "reservation_checked_out"
	EventReservationCancelled       OutboxEventType = "reservation_cancelled"
	EventPaymentRecorded            OutboxEventType = "payment_recorded"
	EventPaymentSucceeded           OutboxEventType = "payment_succeeded"
	EventPaymentFailed              OutboxEventType = "payment_failed"
	EventRefundIssued               OutboxEventType = "refund_issued"
	EventWaitlistNotified           OutboxEventType = "waitlist_notified"
	EventWaitlistConverted          OutboxEventType = "waitlist_converted"
	EventConsumptionDeductionFailed OutboxEventType = "consumption_deduction_failed"
	EventInventoryBelowSafetyLevel  OutboxEventType = "inventory_below_safety_level"
)

var validOutboxEventTypes = []OutboxEventType{
	EventReservationCreated,
	EventReservationConfirmed,
	EventReservationModified,
	EventReservationCheckedIn,
	EventReservationCheckedOut,
	EventReservationCancelled,
	EventPaymentRecorded,
	EventPaymentSucceeded,
	EventPaymentFailed,
	EventRefundIssued,
	EventWaitlistNotified,
	EventWaitlistConverted,
	EventConsumptionDeductionFailed,
	EventInventoryBelowSafetyLevel,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
