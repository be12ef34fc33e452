package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string          `gorm:"index;not null" json:"user_id"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Currency        string          `gorm:"type:varchar(10);not null" json:"currency"`
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"`
	CartVersion     int64           `gorm:"not null" json:"cart_version"`
	RedirectURL     string          `gorm:"type:varchar(1024)" json:"redirect_url,omitempty"`
	StatusChangedAt time.Time       `json:"status_changed_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is an immutable snapshot of a cart line at checkout time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ServiceID uuid.UUID       `gorm:"type:uuid;not null" json:"service_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

// NewOrderFromCart builds a pending order from a cart snapshot. Total is
// fixed here and never recomputed from live catalog prices.
func NewOrderFromCart(cart *Cart, currency string) *Order {
	now := time.Now().UTC()
	order := &Order{
		ID:              uuid.New(),
		UserID:          cart.UserID,
		Total:           cart.Total(),
		Currency:        currency,
		Status:          OrderStatusPending,
		CartVersion:     cart.Version,
		StatusChangedAt: now,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return order
}
