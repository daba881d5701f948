package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// Actor identifies who is performing a write, for outbox attribution.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateOrderInput carries the fields accepted when creating an order.
// Status and urgency are server-assigned: every order starts waiting and
// not urgent.
type CreateOrderInput struct {
	Name         string     `json:"name" validate:"required"`
	Factory      string     `json:"factory"`
	Quantity     *int       `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit         string     `json:"unit"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Actor        Actor      `json:"-"`
}

// UpdateOrderInput patches editable fields. Nil pointers leave the column
// untouched; ClearDeliveryDate and ClearImageURL null the column out.
type UpdateOrderInput struct {
	OrderID           uuid.UUID  `json:"-"`
	Name              *string    `json:"name,omitempty"`
	Factory           *string    `json:"factory,omitempty"`
	Quantity          *int       `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit              *string    `json:"unit,omitempty"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
	ClearDeliveryDate bool       `json:"clear_delivery_date,omitempty"`
	ImageURL          *string    `json:"image_url,omitempty"`
	ClearImageURL     bool       `json:"clear_image_url,omitempty"`
	Actor             Actor      `json:"-"`
}

// OrderDTO is the transport shape of one order.
type OrderDTO struct {
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

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:           o.ID,
		Name:         o.Name,
		Factory:      o.Factory,
		Quantity:     o.Quantity,
		Unit:         o.Unit,
		DeliveryDate: o.DeliveryDate,
		Status:       o.Status,
		IsUrgent:     o.IsUrgent,
		ImageURL:     o.ImageURL,
		UserID:       o.UserID,
		CompletedAt:  o.CompletedAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
