package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

// Setting keys understood by the calculator.
const (
	KeyCancellationPolicy = "cancellation_policy"
	KeyDepositRate        = "deposit_rate"
	KeyCheckInTime        = "check_in_time"
	KeyCheckOutTime       = "check_out_time"
	KeyCheckInGraceDays   = "check_in_grace_days"
)

// Keys lists every setting the calculator reads.
var Keys = []string{
	KeyCancellationPolicy,
	KeyDepositRate,
	KeyCheckInTime,
	KeyCheckOutTime,
	KeyCheckInGraceDays,
}

const (
	DefaultCheckInTime  = "14:00"
	DefaultCheckOutTime = "12:00"
)

var DefaultDepositRate = decimal.RequireFromString("0.30")

// RefundTier grants Percent of the paid amount when the cancellation happens
// at least MinHoursBefore hours before midnight of the check-in date.
type RefundTier struct {
	MinHoursBefore int `json:"min_hours_before"`
	Percent        int `json:"refund_percent"`
}

// DefaultRefundTiers: 7+ days 100%, 3-6 days 80%, 24h-3 days 50%, under 24h 10%.
func DefaultRefundTiers() []RefundTier {
	return []RefundTier{
		{MinHoursBefore: 7 * 24, Percent: 100},
		{MinHoursBefore: 3 * 24, Percent: 80},
		{MinHoursBefore: 24, Percent: 50},
		{MinHoursBefore: 0, Percent: 10},
	}
}

// Policy is the resolved set of billing rules in force.
type Policy struct {
	RefundTiers      []RefundTier    `json:"refund_tiers"`
	DepositRate      decimal.Decimal `json:"deposit_rate"`
	CheckInTime      string          `json:"check_in_time"`
	CheckOutTime     string          `json:"check_out_time"`
	CheckInGraceDays int             `json:"check_in_grace_days"`
}

// DefaultPolicy is used for every setting that is absent.
func DefaultPolicy() Policy {
	return Policy{
		RefundTiers:  DefaultRefundTiers(),
		DepositRate:  DefaultDepositRate,
		CheckInTime:  DefaultCheckInTime,
		CheckOutTime: DefaultCheckOutTime,
	}
}

// SettingsSource is the configuration store boundary.
type SettingsSource interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
}

// ResolvePolicy reads every policy key from source, falling back to defaults
// for absent keys. A present but malformed value is a CodePolicy error.
func ResolvePolicy(ctx context.Context, source SettingsSource, defaultGraceDays int) (Policy, error) {
	policy := DefaultPolicy()
	policy.CheckInGraceDays = defaultGraceDays
	if source == nil {
		return policy, nil
	}

	for _, key := range Keys {
		raw, ok, err := source.Lookup(ctx, key)
		if err != nil {
			return Policy{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read setting "+key)
		}
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if err := applySetting(&policy, key, raw); err != nil {
			return Policy{}, pkgerrors.Wrap(pkgerrors.CodePolicy, err, "invalid setting "+key).
				WithDetails(map[string]string{"key": key})
		}
	}
	return policy, nil
}

// ValidateSetting checks a value before it is written to the store.
func ValidateSetting(key, value string) error {
	probe := DefaultPolicy()
	return applySetting(&probe, key, value)
}

func applySetting(policy *Policy, key, raw string) error {
	raw = strings.TrimSpace(raw)
	switch key {
	case KeyCancellationPolicy:
		tiers, err := ParseRefundTiers(raw)
		if err != nil {
			return err
		}
		policy.RefundTiers = tiers
	case KeyDepositRate:
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("deposit rate must be a decimal: %w", err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("deposit rate must be between 0 and 1")
		}
		policy.DepositRate = rate
	case KeyCheckInTime:
		if err := validateClock(raw); err != nil {
			return err
		}
		policy.CheckInTime = raw
	case KeyCheckOutTime:
		if err := validateClock(raw); err != nil {
			return err
		}
		policy.CheckOutTime = raw
	case KeyCheckInGraceDays:
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return fmt.Errorf("grace days must be a non-negative integer")
		}
		policy.CheckInGraceDays = days
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// ParseRefundTiers decodes a JSON tier array and orders it by lead time, longest first.
func ParseRefundTiers(raw string) ([]RefundTier, error) {
	var tiers []RefundTier
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		return nil, fmt.Errorf("cancellation policy must be a JSON array of tiers: %w", err)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("cancellation policy needs at least one tier")
	}
	seen := make(map[int]struct{}, len(tiers))
	for _, tier := range tiers {
		if tier.MinHoursBefore < 0 {
			return nil, fmt.Errorf("min_hours_before must be >= 0")
		}
		if tier.Percent < 0 || tier.Percent > 100 {
			return nil, fmt.Errorf("refund_percent must be between 0 and 100")
		}
		if _, dup := seen[tier.MinHoursBefore]; dup {
			return nil, fmt.Errorf("duplicate tier at %d hours", tier.MinHoursBefore)
		}
		seen[tier.MinHoursBefore] = struct{}{}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinHoursBefore > tiers[j].MinHoursBefore })
	return tiers, nil
}

func validateClock(raw string) error {
	if _, err := time.Parse("15:04", raw); err != nil {
		return fmt.Errorf("time must be HH:MM")
	}
	return nil
}
