package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationLog is the optional durable mirror of emitted events. Writes
// are best-effort; REST reads over this table are the durability fallback
// for clients that were not connected when an event fired.
type NotificationLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"type:varchar(50);not null" json:"type"`
	Payload   string    `gorm:"type:jsonb" json:"payload"`
	EmittedAt time.Time `gorm:"index" json:"emitted_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
