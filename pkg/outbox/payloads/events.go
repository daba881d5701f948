package payloads

import (
	"time"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderSnapshot carries the full order row as it exists after a write.
// Insert and update events ship the whole snapshot so consumers can
// replace their copy without a read-back.
type OrderSnapshot struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Factory      string            `json:"factory"`
	Quantity     *int              `json:"quantity,omitempty"`
	Unit         string            `json:"unit,omitempty"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
	Status       enums.OrderStatus `json:"status"`
	IsUrgent     bool              `json:"is_urgent"`
	ImageURL     *string           `json:"image_url,omitempty"`
	UserID       uuid.UUID         `json:"user_id"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// OrderInsertedEvent is emitted when a new order is created.
type OrderInsertedEvent struct {
	Order OrderSnapshot `json:"order"`
}

// OrderUpdatedEvent is emitted after any field, status, or urgency change.
type OrderUpdatedEvent struct {
	Order OrderSnapshot `json:"order"`
}

// OrderDeletedEvent is emitted when an order row is removed.
type OrderDeletedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
}

// NotificationRequestedEvent asks the worker to fan a push notification
// out to every registered subscription.
type NotificationRequestedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderName string    `json:"order_name"`
	Factory   string    `json:"factory"`
	CreatedBy uuid.UUID `json:"created_by"`
}
