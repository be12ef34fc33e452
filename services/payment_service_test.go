package services

import (
	"context"
	"net/url"
	"testing"

	"homeser-core/apperrors"
	"homeser-core/models"
	"homeser-core/realtime"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paymentFixture struct {
	svc      *PaymentService
	orders   *fakeOrderRepo
	pays     *fakePaymentRepo
	verifier *fakeVerifier
	hub      *realtime.Hub

	orderID   uuid.UUID
	paymentID uuid.UUID
	tranID    string
}

// newPaymentFixture seeds an order awaiting payment for 1800 BDT with its
// pending payment record, the state an IPN normally finds.
func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	orders := newFakeOrderRepo()
	pays := newFakePaymentRepo(orders)
	verifier := &fakeVerifier{}
	hub := realtime.NewHub(logger)
	notifier := NewNotifier(hub, nil, nil, logger)

	order := &models.Order{
		ID:       uuid.New(),
		UserID:   "user-1",
		Total:    decimal.NewFromInt(1800),
		Currency: "BDT",
		Status:   models.OrderStatusAwaitingPayment,
	}
	require.NoError(t, orders.Create(ctx, order))

	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        "user-1",
		TransactionID: "homeser_" + order.ID.String() + "_ab12cd34",
		Amount:        order.Total,
		Currency:      "BDT",
		Status:        models.PaymentStatusPending,
	}
	require.NoError(t, pays.Create(ctx, payment))

	return &paymentFixture{
		svc:       NewPaymentService(pays, orders, verifier, notifier, logger),
		orders:    orders,
		pays:      pays,
		verifier:  verifier,
		hub:       hub,
		orderID:   order.ID,
		paymentID: payment.ID,
		tranID:    payment.TransactionID,
	}
}

func (f *paymentFixture) notification(status, amount string) ([]byte, url.Values) {
	values := url.Values{}
	values.Set("tran_id", f.tranID)
	values.Set("status", status)
	values.Set("amount", amount)
	values.Set("verify_sign", "cafebabe")
	values.Set("verify_key", "amount,status,tran_id")
	return []byte(values.Encode()), values
}

func TestHandleIPN_ValidNotificationSettlesPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	orderConn := &memoryConn{}
	payConn := &memoryConn{}
	f.hub.Subscribe("user-1", models.ChannelOrders, orderConn)
	f.hub.Subscribe("user-1", models.ChannelPayments, payConn)

	body, values := f.notification("VALID", "1800.00")
	require.NoError(t, f.svc.HandleIPN(ctx, body, values))

	assert.Equal(t, models.OrderStatusPaid, f.orders.status(f.orderID))
	payment := f.pays.byOrder(f.orderID)
	assert.Equal(t, models.PaymentStatusVerified, payment.Status)
	assert.True(t, payment.VerifiedAmount.Equal(decimal.NewFromInt(1800)))
	assert.NotNil(t, payment.VerifiedAt)
	assert.NotEmpty(t, payment.NotificationDigest)

	orderEvents := orderConn.received()
	require.Len(t, orderEvents, 1)
	assert.Equal(t, models.EventOrderStatusChanged, orderEvents[0].Type)
	assert.Equal(t, models.OrderStatusPaid, orderEvents[0].Payload.(map[string]interface{})["status"])

	payEvents := payConn.received()
	require.Len(t, payEvents, 1)
	assert.Equal(t, models.EventPaymentStatusChanged, payEvents[0].Type)
	assert.Equal(t, models.PaymentStatusVerified, payEvents[0].Payload.(map[string]interface{})["status"])
}

func TestHandleIPN_ReplayAcknowledgedWithoutReapplying(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	orderConn := &memoryConn{}
	f.hub.Subscribe("user-1", models.ChannelOrders, orderConn)

	body, values := f.notification("VALID", "1800.00")
	require.NoError(t, f.svc.HandleIPN(ctx, body, values))
	first := f.pays.byOrder(f.orderID)

	// Redelivery of the byte-identical notification is a silent ack.
	require.NoError(t, f.svc.HandleIPN(ctx, body, values))

	second := f.pays.byOrder(f.orderID)
	assert.Equal(t, first.VerifiedAt, second.VerifiedAt)
	assert.Equal(t, models.OrderStatusPaid, f.orders.status(f.orderID))
	assert.Len(t, orderConn.received(), 1)
}

func TestHandleIPN_TamperedSignatureChangesNothing(t *testing.T) {
	f := newPaymentFixture(t)
	f.verifier.err = apperrors.ErrInvalidSignature

	body, values := f.notification("VALID", "1800.00")
	err := f.svc.HandleIPN(context.Background(), body, values)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)

	assert.Equal(t, models.OrderStatusAwaitingPayment, f.orders.status(f.orderID))
	assert.Equal(t, models.PaymentStatusPending, f.pays.byOrder(f.orderID).Status)
}

func TestHandleIPN_AmountMismatchFailsOrder(t *testing.T) {
	f := newPaymentFixture(t)

	body, values := f.notification("VALID", "1700.00")
	require.NoError(t, f.svc.HandleIPN(context.Background(), body, values))

	assert.Equal(t, models.OrderStatusFailed, f.orders.status(f.orderID))
	payment := f.pays.byOrder(f.orderID)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.True(t, payment.VerifiedAmount.Equal(decimal.NewFromInt(1700)))
}

func TestHandleIPN_GatewayFailureStatusFailsOrder(t *testing.T) {
	f := newPaymentFixture(t)

	body, values := f.notification("FAILED", "1800.00")
	require.NoError(t, f.svc.HandleIPN(context.Background(), body, values))

	assert.Equal(t, models.OrderStatusFailed, f.orders.status(f.orderID))
	assert.Equal(t, models.PaymentStatusFailed, f.pays.byOrder(f.orderID).Status)
}

func TestHandleIPN_UnknownTransactionAcknowledged(t *testing.T) {
	f := newPaymentFixture(t)

	body, values := f.notification("VALID", "1800.00")
	values.Set("tran_id", "homeser_unknown_deadbeef")

	require.NoError(t, f.svc.HandleIPN(context.Background(), body, values))
	assert.Equal(t, models.OrderStatusAwaitingPayment, f.orders.status(f.orderID))
}

func TestHandleIPN_ConflictingNotificationForSettledPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	body, values := f.notification("VALID", "1800.00")
	require.NoError(t, f.svc.HandleIPN(ctx, body, values))

	// A later notification with different content for the same transaction
	// is rejected, not re-applied over the settled state.
	body2, values2 := f.notification("VALID", "1700.00")
	err := f.svc.HandleIPN(ctx, body2, values2)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Equal(t, models.OrderStatusPaid, f.orders.status(f.orderID))
}
