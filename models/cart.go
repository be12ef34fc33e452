package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a single line in a user's cart. UnitPrice is the catalog price
// snapshotted when the line was added.
type CartItem struct {
	ServiceID uuid.UUID       `json:"service_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Cart is the mutable per-user cart document stored in Redis. Version
// increments on every successful mutation and is the basis of the
// compare-and-swap concurrency control.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart at version 0 for lazy creation on first add.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartItem{},
	}
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total sums quantity times unit price across all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// AddItem merges a line into the cart: an existing service id has its
// quantity increased rather than duplicating the line.
func (c *Cart) AddItem(serviceID uuid.UUID, qty int, unitPrice decimal.Decimal) {
	for i, item := range c.Items {
		if item.ServiceID == serviceID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		ServiceID: serviceID,
		Quantity:  qty,
		UnitPrice: unitPrice,
	})
}

// RemoveItem decrements a line's quantity by qty; a quantity reaching zero
// removes the line. Returns false when the service id is not in the cart.
func (c *Cart) RemoveItem(serviceID uuid.UUID, qty int) bool {
	for i, item := range c.Items {
		if item.ServiceID != serviceID {
			continue
		}
		if item.Quantity > qty {
			c.Items[i].Quantity -= qty
		} else {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return true
	}
	return false
}

// Clear empties the cart without deleting it.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}
