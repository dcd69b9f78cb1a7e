// Package calendar normalizes stay dates. A stay date is a civil date stored
// as midnight UTC; "today" and lead times are computed in the hotel timezone.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Date truncates t to its civil date, expressed as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current civil date at the hotel.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// Parse reads a YYYY-MM-DD string into a stay date.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", value, Layout)
	}
	return t, nil
}

// Format renders a stay date as YYYY-MM-DD.
func Format(t time.Time) string {
	return Date(t).Format(Layout)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// Nights is the billable night count of a stay, never less than one.
func Nights(checkIn, checkOut time.Time) int {
	n := DaysBetween(checkIn, checkOut)
	if n < 1 {
		return 1
	}
	return n
}

// StartOf returns midnight of the stay date in the hotel timezone.
func StartOf(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ValidateRange enforces checkOut > checkIn.
func ValidateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return fmt.Errorf("check-in and check-out dates are required")
	}
	if !Date(checkOut).After(Date(checkIn)) {
		return fmt.Errorf("check-out date must be after check-in date")
	}
	return nil
}
