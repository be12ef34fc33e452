package repository

import (
	"context"
	"time"

	"homeser-core/apperrors"
	"homeser-core/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkVerified(ctx context.Context, paymentID, orderID uuid.UUID, amount decimal.Decimal, digest string) error
	MarkFailed(ctx context.Context, paymentID, orderID uuid.UUID, amount decimal.Decimal, digest string) error
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *gormPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkVerified transitions Payment to verified and Order to paid in one
// database transaction, each guarded by its current state. A concurrent
// reader can never observe a paid order with an unverified payment or vice
// versa.
func (r *gormPaymentRepo) MarkVerified(ctx context.Context, paymentID, orderID uuid.UUID, amount decimal.Decimal, digest string) error {
	return r.transition(ctx, paymentID, orderID,
		models.PaymentStatusVerified, models.OrderStatusPaid, amount, digest)
}

// MarkFailed transitions Payment to failed and Order to failed atomically,
// used for amount mismatches and gateway-reported failures.
func (r *gormPaymentRepo) MarkFailed(ctx context.Context, paymentID, orderID uuid.UUID, amount decimal.Decimal, digest string) error {
	return r.transition(ctx, paymentID, orderID,
		models.PaymentStatusFailed, models.OrderStatusFailed, amount, digest)
}

func (r *gormPaymentRepo) transition(ctx context.Context, paymentID, orderID uuid.UUID, paymentStatus, orderStatus string, amount decimal.Decimal, digest string) error {
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":              paymentStatus,
			"verified_amount":     amount,
			"notification_digest": digest,
		}
		if paymentStatus == models.PaymentStatusVerified {
			updates["verified_at"] = &now
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrIllegalTransition
		}

		res = tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusAwaitingPayment).
			Updates(map[string]interface{}{
				"status":            orderStatus,
				"status_changed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrIllegalTransition
		}
		return nil
	})
}
