package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment tracks the gateway session for an order, one-to-one. It is created
// when the checkout orchestrator requests a gateway session and mutated only
// by the IPN handler afterwards.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	UserID        string          `gorm:"index;not null" json:"user_id"`
	TransactionID string          `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(10);not null" json:"currency"`
	Status        string          `gorm:"type:varchar(20);not null" json:"status"`
	SessionKey    string          `gorm:"type:varchar(255)" json:"-"`
	GatewayURL    string          `gorm:"type:varchar(1024)" json:"-"`

	// VerifiedAmount and VerifiedAt are set by the IPN handler once the
	// notification passes signature and amount checks.
	VerifiedAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"verified_amount"`
	VerifiedAt     *time.Time      `json:"verified_at,omitempty"`

	// NotificationDigest fingerprints the last processed IPN body and is the
	// basis of duplicate-delivery detection.
	NotificationDigest string `gorm:"type:varchar(64);index" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
