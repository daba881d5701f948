package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres. The literal values
// double as the board column identifiers on the wire.
type OrderStatus string

const (
	OrderStatusWaiting      OrderStatus = "waiting"
	OrderStatusInProduction OrderStatus = "inProduction"
	OrderStatusCompleted    OrderStatus = "completed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusWaiting,
	OrderStatusInProduction,
	OrderStatusCompleted,
}

// IsValid reports whether the value matches the canonical order_status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatuses returns the canonical status list in board column order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}
