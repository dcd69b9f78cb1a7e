package inventory

import "github.com/shopspring/decimal"

const costPrecision = 2

// WeightedAverage blends the current cost with an incoming lot. When the
// resulting quantity is zero the incoming price becomes the cost.
func WeightedAverage(currentQty, currentCost, qty, unitPrice decimal.Decimal) decimal.Decimal {
	newQty := currentQty.Add(qty)
	if newQty.IsZero() {
		return unitPrice.Round(costPrecision)
	}
	value := currentQty.Mul(currentCost).Add(qty.Mul(unitPrice))
	return value.DivRound(newQty, costPrecision)
}

// Extend prices a movement, rounded to cents.
func Extend(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(costPrecision)
}
