package enums

import "fmt"

// HistoryAction labels a reservation history entry.
type HistoryAction string

const (
	HistoryCreated    HistoryAction = "CREATED"
	HistoryConfirmed  HistoryAction = "CONFIRMED"
	HistoryCheckedIn  HistoryAction = "CHECKED_IN"
	HistoryModified   HistoryAction = "MODIFIED"
	HistoryInspected  HistoryAction = "INSPECTED"
	HistoryCheckedOut HistoryAction = "CHECKED_OUT"
	HistoryCancelled  HistoryAction = "CANCELLED"
	HistoryPaid       HistoryAction = "PAID"
	HistoryRefunded   HistoryAction = "REFUNDED"
	HistoryDeleted    HistoryAction = "DELETED"
)

var validHistoryActions = []HistoryAction{
	HistoryCreated,
	HistoryConfirmed,
	HistoryCheckedIn,
	HistoryModified,
	HistoryInspected,
	HistoryCheckedOut,
	HistoryCancelled,
	HistoryPaid,
	HistoryRefunded,
	HistoryDeleted,
}

// String implements fmt.Stringer.
func (v HistoryAction) String() string {
	return string(v)
}

// IsValid reports whether the value is a known HistoryAction.
func (v HistoryAction) IsValid() bool {
	for _, candidate := range validHistoryActions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseHistoryAction converts raw input into a HistoryAction.
func ParseHistoryAction(value string) (HistoryAction, error) {
	for _, candidate := range validHistoryActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid history action %q", value)
}
