package enums

import "fmt"

// WaitlistStatus tracks a waitlist request from intake to conversion.
type WaitlistStatus string

const (
	WaitlistStatusPending   WaitlistStatus = "PENDING"
	WaitlistStatusNotified  WaitlistStatus = "NOTIFIED"
	WaitlistStatusConverted WaitlistStatus = "CONVERTED"
	WaitlistStatusCancelled WaitlistStatus = "CANCELLED"
)

var validWaitlistStatuses = []WaitlistStatus{
	WaitlistStatusPending,
	WaitlistStatusNotified,
	WaitlistStatusConverted,
	WaitlistStatusCancelled,
}

// String implements fmt.Stringer.
func (v WaitlistStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WaitlistStatus.
func (v WaitlistStatus) IsValid() bool {
	for _, candidate := range validWaitlistStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWaitlistStatus converts raw input into a WaitlistStatus.
func ParseWaitlistStatus(value string) (WaitlistStatus, error) {
	for _, candidate := range validWaitlistStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid waitlist status %q", value)
}

// Open reports whether the entry can still be notified, converted or cancelled.
func (v WaitlistStatus) Open() bool {
	return v == WaitlistStatusPending || v == WaitlistStatusNotified
}
