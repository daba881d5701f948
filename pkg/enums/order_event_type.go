package enums

import "fmt"

// OrderEventType tags entries on the order change feed.
type OrderEventType string

const (
	OrderEventInsert OrderEventType = "insert"
	OrderEventUpdate OrderEventType = "update"
	OrderEventDelete OrderEventType = "delete"
)

var validOrderEventTypes = []OrderEventType{
	OrderEventInsert,
	OrderEventUpdate,
	OrderEventDelete,
}

// IsValid reports whether the value is a known change-feed event type.
func (e OrderEventType) IsValid() bool {
	for _, candidate := range validOrderEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOrderEventType converts raw input into OrderEventType.
func ParseOrderEventType(value string) (OrderEventType, error) {
	for _, candidate := range validOrderEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event type %q", value)
}
