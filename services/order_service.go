package services

import (
	"context"
	"errors"

	"homeser-core/apperrors"
	"homeser-core/models"
	"homeser-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// OrderService serves the user's read views and the user-initiated cancel.
// Orders are owned by the engine; read views never mutate them.
type OrderService struct {
	orders   repository.OrderRepository
	notifier *Notifier
	logger   *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, notifier *Notifier, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}
}

// GetUserOrders retrieves paginated orders for a specific user
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderResponse, error) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, apperrors.ErrInternalServer.With(err)
	}

	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: calculateTotalPages(total, limit),
			HasMore:    total > int64(page*limit),
		},
	}, nil
}

// GetOrderByID retrieves a specific order for a user
func (s *OrderService) GetOrderByID(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(404, "Order not found", nil)
		}
		s.logger.Error("Failed to fetch order",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, apperrors.ErrInternalServer.With(err)
	}
	return order, nil
}

// Cancel applies the user-initiated cancel, legal only while the order is
// awaiting payment. A verification that already arrived wins the race
// through the status guard.
func (s *OrderService) Cancel(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrderByID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, orderID, models.OrderStatusAwaitingPayment, models.OrderStatusCancelled); err != nil {
		if errors.Is(err, apperrors.ErrIllegalTransition) {
			return nil, apperrors.New(409, "order can no longer be cancelled", nil)
		}
		return nil, apperrors.ErrInternalServer.With(err)
	}

	order.Status = models.OrderStatusCancelled
	s.notifier.OrderStatusChanged(ctx, order)
	return order, nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
