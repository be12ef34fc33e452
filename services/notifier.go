package services

import (
	"context"
	"encoding/json"
	"time"

	"homeser-core/models"
	"homeser-core/realtime"
	"homeser-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher hands events to the external notification/email dispatcher.
type EventPublisher interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

// Notifier fans a state transition out to the realtime hub, the dispatcher
// topic and the durable notification mirror. Every leg is best-effort: a
// failed publish is logged and never fails the transition that triggered it.
type Notifier struct {
	hub       *realtime.Hub
	publisher EventPublisher
	repo      repository.NotificationRepository
	logger    *zap.Logger
}

func NewNotifier(hub *realtime.Hub, publisher EventPublisher, repo repository.NotificationRepository, logger *zap.Logger) *Notifier {
	return &Notifier{
		hub:       hub,
		publisher: publisher,
		repo:      repo,
		logger:    logger,
	}
}

// OrderStatusChanged notifies the owning user that an order moved status.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order *models.Order) {
	payload := map[string]interface{}{
		"order_id": order.ID.String(),
		"status":   order.Status,
	}
	n.emit(ctx, order.UserID, models.ChannelOrders, models.EventOrderStatusChanged, payload)
}

// PaymentStatusChanged notifies the owning user that a payment moved status.
func (n *Notifier) PaymentStatusChanged(ctx context.Context, payment *models.Payment, status string) {
	payload := map[string]interface{}{
		"payment_id": payment.ID.String(),
		"order_id":   payment.OrderID.String(),
		"status":     status,
	}
	n.emit(ctx, payment.UserID, models.ChannelPayments, models.EventPaymentStatusChanged, payload)
}

func (n *Notifier) emit(ctx context.Context, userID, channel, eventType string, payload map[string]interface{}) {
	now := time.Now().UTC()

	n.hub.Publish(userID, channel, models.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: now,
	})

	if n.publisher != nil {
		event := models.NotificationEvent{
			UserID:    userID,
			Type:      eventType,
			Payload:   payload,
			Timestamp: now,
		}
		if err := n.publisher.Publish(ctx, event); err != nil {
			n.logger.Warn("Failed to publish notification event",
				zap.String("user_id", userID),
				zap.String("type", eventType),
				zap.Error(err),
			)
		}
	}

	if n.repo != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return
		}
		log := &models.NotificationLog{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      eventType,
			Payload:   string(raw),
			EmittedAt: now,
		}
		if err := n.repo.Create(ctx, log); err != nil {
			n.logger.Warn("Failed to persist notification log",
				zap.String("user_id", userID),
				zap.String("type", eventType),
				zap.Error(err),
			)
		}
	}
}
