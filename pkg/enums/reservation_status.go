package enums

import "fmt"

// ReservationStatus tracks where a reservation sits in its lifecycle.
type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "PENDING"
	ReservationStatusConfirmed  ReservationStatus = "CONFIRMED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusCheckedIn,
	ReservationStatusCheckedOut,
	ReservationStatusCancelled,
}

// String implements fmt.Stringer.
func (v ReservationStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReservationStatus.
func (v ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}

// OccupyingReservationStatuses are the statuses that hold a room for their date range.
var OccupyingReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusCheckedIn,
}

// Occupies reports whether a reservation in this status blocks its room.
func (v ReservationStatus) Occupies() bool {
	for _, candidate := range OccupyingReservationStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}
