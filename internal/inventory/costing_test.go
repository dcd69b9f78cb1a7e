package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name                      string
		qty, cost, inQty, inPrice string
		want                      string
	}{
		{"empty stock takes incoming price", "0", "0", "10", "4.50", "4.50"},
		{"equal lots average", "10", "2.00", "10", "4.00", "3.00"},
		{"uneven lots", "30", "1.00", "10", "2.00", "1.25"},
		{"half cent rounds up", "1", "1.00", "1", "1.01", "1.01"},
		{"thirds", "1", "1.00", "2", "2.00", "1.67"},
		{"zero incoming quantity keeps cost", "3", "1.00", "0", "9.99", "1.00"},
		{"zero result quantity uses incoming price", "0", "5.00", "0", "7.25", "7.25"},
		{"cents half up", "1", "0.01", "1", "0.02", "0.02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedAverage(d(tt.qty), d(tt.cost), d(tt.inQty), d(tt.inPrice))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestExtendRoundsToCents(t *testing.T) {
	assert.Equal(t, "3.75", Extend(d("1.5"), d("2.50")).StringFixed(2))
	assert.Equal(t, "0.34", Extend(d("0.333"), d("1.01")).StringFixed(2))
}
