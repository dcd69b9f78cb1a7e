// Package billing holds the money rules: stay totals, deposits, check-out
// settlement and tiered cancellation refunds. All amounts are rounded to
// cents, half-up.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/pkg/calendar"
)

var hundred = decimal.NewFromInt(100)

// Round applies the house rounding rule: two places, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// StayTotal prices a stay at unitPrice per night.
func StayTotal(unitPrice decimal.Decimal, checkIn, checkOut time.Time) decimal.Decimal {
	nights := calendar.Nights(checkIn, checkOut)
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(nights))))
}

// Deposit is the share of total expected up front.
func (p Policy) Deposit(total decimal.Decimal) decimal.Decimal {
	return Round(total.Mul(p.DepositRate))
}

// RefundQuote is the outcome of applying the tier schedule to a cancellation.
type RefundQuote struct {
	Amount       decimal.Decimal `json:"amount"`
	Percent      int             `json:"percent"`
	HoursBefore  float64         `json:"hours_before"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	TierMinHours *int            `json:"tier_min_hours,omitempty"`
}

// Refund computes how much of paid goes back to a guest cancelling at now.
// Lead time runs to midnight of the check-in date in loc; at or past that
// moment nothing is refunded. A lead time exactly on a tier boundary earns
// that tier.
func (p Policy) Refund(paid decimal.Decimal, checkIn, now time.Time, loc *time.Location) RefundQuote {
	quote := RefundQuote{Amount: decimal.Zero, PaidAmount: paid}
	lead := calendar.StartOf(checkIn, loc).Sub(now)
	quote.HoursBefore = lead.Hours()
	if lead <= 0 || !paid.IsPositive() {
		return quote
	}
	for _, tier := range p.RefundTiers {
		if lead >= time.Duration(tier.MinHoursBefore)*time.Hour {
			threshold := tier.MinHoursBefore
			quote.TierMinHours = &threshold
			quote.Percent = tier.Percent
			quote.Amount = Round(paid.Mul(decimal.NewFromInt(int64(tier.Percent))).Div(hundred))
			return quote
		}
	}
	return quote
}

// CheckInAllowed reports whether a stay starting on checkIn may be checked in
// today given the early-arrival grace window.
func (p Policy) CheckInAllowed(checkIn, now time.Time, loc *time.Location) bool {
	latest := calendar.Today(now, loc).AddDate(0, 0, p.CheckInGraceDays)
	return !calendar.Date(checkIn).After(latest)
}

// Settlement is the check-out bill.
type Settlement struct {
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExtraCharges decimal.Decimal `json:"extra_charges"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
	RefundDue    decimal.Decimal `json:"refund_due"`
}

// Settle computes total + extras - paid. A negative result is reported as
// RefundDue with BalanceDue clamped to zero.
func Settle(total, extras, paid decimal.Decimal) Settlement {
	balance := Round(total.Add(extras).Sub(paid))
	s := Settlement{
		TotalAmount:  total,
		ExtraCharges: extras,
		PaidAmount:   paid,
		BalanceDue:   balance,
		RefundDue:    decimal.Zero,
	}
	if balance.IsNegative() {
		s.RefundDue = balance.Neg()
		s.BalanceDue = decimal.Zero
	}
	return s
}
