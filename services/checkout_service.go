package services

import (
	"context"
	"time"

	"homeser-core/apperrors"
	"homeser-core/gateway"
	"homeser-core/models"
	"homeser-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutResult is returned to the client so it can follow the gateway
// redirect. On an ErrCheckoutInProgress conflict OrderID carries the order
// of the prior attempt.
type CheckoutResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	RedirectURL string    `json:"redirect_url,omitempty"`
}

// CheckoutService is the single state-changing entry point for order
// creation. No other path may create an order.
type CheckoutService struct {
	carts    *repository.CartRepository
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  gateway.SessionCreator
	notifier *Notifier
	logger   *zap.Logger

	currency string
	idemTTL  time.Duration
}

func NewCheckoutService(
	carts *repository.CartRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gw gateway.SessionCreator,
	notifier *Notifier,
	logger *zap.Logger,
	currency string,
	idemTTL time.Duration,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		payments: payments,
		gateway:  gw,
		notifier: notifier,
		logger:   logger,
		currency: currency,
		idemTTL:  idemTTL,
	}
}

// Checkout converts the current cart snapshot into a pending order, clears
// the cart, requests a gateway session and moves the order to
// awaiting_payment. A duplicate submit for the same cart fingerprint (user
// id + cart version) is rejected with the prior order id. On gateway failure
// the order is marked failed and the cart is NOT restored; the user re-adds
// items. That mirrors the upstream product behavior and is flagged as a
// product decision in DESIGN.md.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*CheckoutResult, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrInternalServer.With(err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, apperrors.ErrEmptyCart
	}

	order := models.NewOrderFromCart(cart, s.currency)

	existing, reserved, err := s.carts.ReserveCheckout(ctx, userID, cart.Version, order.ID.String(), s.idemTTL)
	if err != nil {
		return nil, apperrors.ErrInternalServer.With(err)
	}
	if !reserved {
		result := &CheckoutResult{}
		if id, parseErr := uuid.Parse(existing); parseErr == nil {
			result.OrderID = id
		}
		return result, apperrors.ErrCheckoutInProgress
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// Drop the reservation so the same cart can be checked out again.
		if relErr := s.carts.ReleaseCheckout(ctx, userID, cart.Version); relErr != nil {
			s.logger.Warn("Failed to release checkout reservation",
				zap.String("user_id", userID),
				zap.Error(relErr),
			)
		}
		return nil, apperrors.ErrInternalServer.With(err)
	}

	// The order is durable; only now is the cart cleared. A conflict here
	// means the user mutated the cart mid-checkout, which is fine: the new
	// cart state stands and the order keeps its snapshot.
	if _, err := s.carts.Clear(ctx, userID, cart.Version); err != nil {
		s.logger.Warn("Cart not cleared after checkout",
			zap.String("user_id", userID),
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	session, err := s.gateway.CreateSession(ctx, order)
	if err != nil {
		s.logger.Error("Gateway session creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		s.failOrder(ctx, order)
		return nil, apperrors.ErrGateway.With(err)
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        userID,
		TransactionID: session.TransactionID,
		Amount:        order.Total,
		Currency:      s.currency,
		Status:        models.PaymentStatusPending,
		SessionKey:    session.SessionKey,
		GatewayURL:    session.GatewayURL,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error("Failed to persist payment record",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		s.failOrder(ctx, order)
		return nil, apperrors.ErrInternalServer.With(err)
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusAwaitingPayment); err != nil {
		s.logger.Error("Order transition to awaiting_payment rejected",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, apperrors.ErrInternalServer.With(err)
	}
	if err := s.orders.SetRedirectURL(ctx, order.ID, session.GatewayURL); err != nil {
		s.logger.Warn("Failed to persist redirect URL",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
	order.Status = models.OrderStatusAwaitingPayment

	s.notifier.OrderStatusChanged(ctx, order)

	return &CheckoutResult{
		OrderID:     order.ID,
		RedirectURL: session.GatewayURL,
	}, nil
}

func (s *CheckoutService) failOrder(ctx context.Context, order *models.Order) {
	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusFailed); err != nil {
		s.logger.Error("Order transition to failed rejected",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}
	order.Status = models.OrderStatusFailed
	s.notifier.OrderStatusChanged(ctx, order)
}
