package board

import (
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// Order is the in-memory mirror of an orders row. The board keeps one copy
// per identifier and rebuilds the per-status columns on every projection.
type Order struct {
	ID           uuid.UUID
	Name         string
	Factory      string
	Quantity     *int
	Unit         string
	DeliveryDate *time.Time
	Status       enums.OrderStatus
	IsUrgent     bool
	ImageURL     *string
	UserID       uuid.UUID
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy so captured snapshots cannot alias live state.
func (o Order) Clone() Order {
	cloned := o
	if o.Quantity != nil {
		q := *o.Quantity
		cloned.Quantity = &q
	}
	if o.DeliveryDate != nil {
		d := *o.DeliveryDate
		cloned.DeliveryDate = &d
	}
	if o.ImageURL != nil {
		u := *o.ImageURL
		cloned.ImageURL = &u
	}
	if o.CompletedAt != nil {
		c := *o.CompletedAt
		cloned.CompletedAt = &c
	}
	return cloned
}

// Event is one change-feed delta. Order carries the full row for inserts and
// updates; deletes only need the identifier.
type Event struct {
	Type    enums.OrderEventType
	Order   Order
	OrderID uuid.UUID
}

// BoardView is the projector output: one ordered list per status column plus
// the urgency ranks computed for this projection.
type BoardView struct {
	Waiting      []Order
	InProduction []Order
	Completed    []Order
	Ranks        map[uuid.UUID]int
}
