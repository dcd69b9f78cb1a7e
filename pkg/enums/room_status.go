package enums

import "fmt"

// RoomStatus is the operational state of a physical room.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusReserved    RoomStatus = "RESERVED"
	RoomStatusCleaning    RoomStatus = "CLEANING"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

var validRoomStatuses = []RoomStatus{
	RoomStatusAvailable,
	RoomStatusOccupied,
	RoomStatusReserved,
	RoomStatusCleaning,
	RoomStatusMaintenance,
}

// String implements fmt.Stringer.
func (v RoomStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known RoomStatus.
func (v RoomStatus) IsValid() bool {
	for _, candidate := range validRoomStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseRoomStatus converts raw input into a RoomStatus.
func ParseRoomStatus(value string) (RoomStatus, error) {
	for _, candidate := range validRoomStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid room status %q", value)
}
