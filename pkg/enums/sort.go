package enums

import "fmt"

// SortKey identifies a sortable board column attribute.
type SortKey string

const (
	SortKeyPriority     SortKey = "priority"
	SortKeyFactory      SortKey = "factory"
	SortKeyQuantity     SortKey = "quantity"
	SortKeyDeliveryDate SortKey = "deliveryDate"
	SortKeyCreatedAt    SortKey = "createdAt"
	SortKeyCompletedAt  SortKey = "completedAt"
)

var validSortKeys = []SortKey{
	SortKeyPriority,
	SortKeyFactory,
	SortKeyQuantity,
	SortKeyDeliveryDate,
	SortKeyCreatedAt,
	SortKeyCompletedAt,
}

// IsValid reports whether the value is a known sort key.
func (k SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into SortKey.
func ParseSortKey(value string) (SortKey, error) {
	for _, candidate := range validSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}

// SortDirection is the requested ordering for a sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid reports whether the value is a known direction.
func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// Multiplier returns the comparison multiplier for the direction.
func (d SortDirection) Multiplier() int {
	if d == SortDesc {
		return -1
	}
	return 1
}
