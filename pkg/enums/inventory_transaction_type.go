package enums

import "fmt"

// InventoryTransactionType is the direction of a stock movement.
type InventoryTransactionType string

const (
	InventoryTransactionIn  InventoryTransactionType = "IN"
	InventoryTransactionOut InventoryTransactionType = "OUT"
)

var validInventoryTransactionTypes = []InventoryTransactionType{
	InventoryTransactionIn,
	InventoryTransactionOut,
}

// String implements fmt.Stringer.
func (v InventoryTransactionType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known InventoryTransactionType.
func (v InventoryTransactionType) IsValid() bool {
	for _, candidate := range validInventoryTransactionTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseInventoryTransactionType converts raw input into a InventoryTransactionType.
func ParseInventoryTransactionType(value string) (InventoryTransactionType, error) {
	for _, candidate := range validInventoryTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory transaction type %q", value)
}
