package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"

	"homeser-core/apperrors"
	"homeser-core/gateway"
	"homeser-core/models"
	"homeser-core/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService consumes the gateway's asynchronous payment notifications.
// It is the only path that moves an order into paid, and the returned error
// is for internal logging only: the HTTP layer acknowledges every
// structurally valid IPN so the gateway stops retrying.
type PaymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	verifier gateway.IPNVerifier
	notifier *Notifier
	logger   *zap.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	verifier gateway.IPNVerifier,
	notifier *Notifier,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		orders:   orders,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleIPN runs the notification through the check pipeline: signature,
// idempotency digest, gateway status, amount. Once signature and idempotency
// pass, processing runs to completion; the paid transition commits Payment
// and Order together in one database transaction.
func (s *PaymentService) HandleIPN(ctx context.Context, body []byte, values url.Values) error {
	tranID := values.Get("tran_id")
	digest := bodyDigest(body)

	if err := s.verifier.VerifyIPN(values); err != nil {
		s.logger.Warn("IPN signature verification failed",
			zap.String("tran_id", tranID),
		)
		return apperrors.ErrInvalidSignature
	}

	payment, err := s.payments.FindByTransactionID(ctx, tranID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("IPN for unknown transaction",
				zap.String("tran_id", tranID),
			)
			return nil
		}
		s.logger.Error("Failed to load payment for IPN",
			zap.String("tran_id", tranID),
			zap.Error(err),
		)
		return err
	}

	if payment.Status != models.PaymentStatusPending {
		if payment.NotificationDigest == digest {
			// Duplicate delivery of an already-processed notification:
			// acknowledge without re-applying anything.
			s.logger.Info("Duplicate IPN ignored",
				zap.String("tran_id", tranID),
				zap.String("payment_id", payment.ID.String()),
			)
			return nil
		}
		// A different notification for a settled payment is an anomaly,
		// e.g. a late gateway retry after manual reconciliation. Never
		// applied.
		s.logger.Warn("IPN for settled payment rejected",
			zap.String("tran_id", tranID),
			zap.String("payment_status", payment.Status),
		)
		return apperrors.ErrIllegalTransition
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		s.logger.Error("Failed to load order for IPN",
			zap.String("order_id", payment.OrderID.String()),
			zap.Error(err),
		)
		return err
	}

	gatewayStatus := strings.ToUpper(values.Get("status"))
	if gatewayStatus != "VALID" && gatewayStatus != "VALIDATED" {
		s.logger.Warn("IPN reports failed payment",
			zap.String("tran_id", tranID),
			zap.String("gateway_status", gatewayStatus),
		)
		return s.settleFailed(ctx, payment, order, decimal.Zero, digest)
	}

	amount, err := decimal.NewFromString(values.Get("amount"))
	if err != nil {
		s.logger.Warn("IPN carries unparseable amount",
			zap.String("tran_id", tranID),
			zap.String("amount", values.Get("amount")),
		)
		return s.settleFailed(ctx, payment, order, decimal.Zero, digest)
	}

	if !amount.Equal(order.Total) {
		// Never silently accepted; the failed order is the operator's
		// reconciliation signal.
		s.logger.Warn("IPN amount mismatch",
			zap.String("tran_id", tranID),
			zap.String("expected", order.Total.String()),
			zap.String("received", amount.String()),
		)
		return s.settleFailed(ctx, payment, order, amount, digest)
	}

	if err := s.payments.MarkVerified(ctx, payment.ID, order.ID, amount, digest); err != nil {
		if errors.Is(err, apperrors.ErrIllegalTransition) {
			// Lost the race against a concurrent delivery of the same
			// notification; the winner already published.
			s.logger.Info("Concurrent IPN already settled payment",
				zap.String("tran_id", tranID),
			)
			return nil
		}
		s.logger.Error("Failed to apply paid transition",
			zap.String("tran_id", tranID),
			zap.Error(err),
		)
		return err
	}

	order.Status = models.OrderStatusPaid
	s.notifier.OrderStatusChanged(ctx, order)
	s.notifier.PaymentStatusChanged(ctx, payment, models.PaymentStatusVerified)

	s.logger.Info("Payment verified",
		zap.String("tran_id", tranID),
		zap.String("order_id", order.ID.String()),
	)
	return nil
}

func (s *PaymentService) settleFailed(ctx context.Context, payment *models.Payment, order *models.Order, amount decimal.Decimal, digest string) error {
	if err := s.payments.MarkFailed(ctx, payment.ID, order.ID, amount, digest); err != nil {
		if errors.Is(err, apperrors.ErrIllegalTransition) {
			s.logger.Info("Concurrent IPN already settled payment",
				zap.String("tran_id", payment.TransactionID),
			)
			return nil
		}
		s.logger.Error("Failed to apply failed transition",
			zap.String("tran_id", payment.TransactionID),
			zap.Error(err),
		)
		return err
	}

	order.Status = models.OrderStatusFailed
	s.notifier.OrderStatusChanged(ctx, order)
	s.notifier.PaymentStatusChanged(ctx, payment, models.PaymentStatusFailed)
	return nil
}

func bodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
