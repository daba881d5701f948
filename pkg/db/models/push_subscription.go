package models

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription stores one browser's Web Push endpoint and keys.
// The endpoint is unique; re-registering the same browser upserts the row.
type PushSubscription struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Endpoint  string    `gorm:"column:endpoint;type:text;not null;uniqueIndex"`
	P256DH    string    `gorm:"column:p256dh;type:text;not null"`
	Auth      string    `gorm:"column:auth;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
