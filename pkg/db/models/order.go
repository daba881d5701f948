package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// Order is a print job tracked on the kanban board.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string            `gorm:"column:name;type:text;not null"`
	Factory      string            `gorm:"column:factory;type:text;not null;default:''"`
	Quantity     *int              `gorm:"column:quantity"`
	Unit         string            `gorm:"column:unit;type:text;not null;default:''"`
	DeliveryDate *time.Time        `gorm:"column:delivery_date"`
	Status       enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'waiting'"`
	IsUrgent     bool              `gorm:"column:is_urgent;not null;default:false"`
	ImageURL     *string           `gorm:"column:image_url"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	CompletedAt  *time.Time        `gorm:"column:completed_at"`
	Reviews      []Review          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
