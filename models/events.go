package models

import "time"

// Realtime channels
const (
	ChannelOrders        = "orders"
	ChannelNotifications = "notifications"
	ChannelPayments      = "payments"
)

// Notification event types
const (
	EventOrderStatusChanged   = "order_status_changed"
	EventPaymentStatusChanged = "payment_status_changed"
)

// Event is the envelope pushed to live websocket connections.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationEvent is handed to the external notification/email dispatcher.
// Ephemeral: best-effort delivery, no replay guarantee from the engine.
type NotificationEvent struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}
