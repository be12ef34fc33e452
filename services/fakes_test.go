package services

import (
	"context"
	"net/url"
	"sync"
	"time"

	"homeser-core/apperrors"
	"homeser-core/catalog"
	"homeser-core/gateway"
	"homeser-core/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	stored := *order
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *order
	return &found, nil
}

func (f *fakeOrderRepo) FindByIDAndUserID(_ context.Context, orderID uuid.UUID, userID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	found := *order
	return &found, nil
}

func (f *fakeOrderRepo) FindByUserID(_ context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			all = append(all, *order)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateStatusLocked(orderID, from, to)
}

func (f *fakeOrderRepo) updateStatusLocked(orderID uuid.UUID, from, to string) error {
	if !models.CanTransition(from, to) {
		return apperrors.ErrIllegalTransition
	}
	order, ok := f.orders[orderID]
	if !ok || order.Status != from {
		return apperrors.ErrIllegalTransition
	}
	order.Status = to
	order.StatusChangedAt = time.Now().UTC()
	return nil
}

func (f *fakeOrderRepo) SetRedirectURL(_ context.Context, orderID uuid.UUID, redirectURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[orderID]; ok {
		order.RedirectURL = redirectURL
	}
	return nil
}

func (f *fakeOrderRepo) status(orderID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[orderID]; ok {
		return order.Status
	}
	return ""
}

// fakePaymentRepo mirrors the production repository's coupling: a settle
// writes the payment and the order together, or neither.
type fakePaymentRepo struct {
	mu        sync.Mutex
	byTranID  map[string]*models.Payment
	orders    *fakeOrderRepo
	createErr error
}

func newFakePaymentRepo(orders *fakeOrderRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		byTranID: make(map[string]*models.Payment),
		orders:   orders,
	}
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	stored := *payment
	f.byTranID[payment.TransactionID] = &stored
	return nil
}

func (f *fakePaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.byTranID[transactionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *payment
	return &found, nil
}

func (f *fakePaymentRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.byTranID {
		if payment.OrderID == orderID {
			found := *payment
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) MarkVerified(_ context.Context, paymentID, orderID uuid.UUID, amount decimal.Decimal, digest string) error {
	return f.transition(paymentID, orderID, models.PaymentStatusVerified, models.OrderStatusPaid, amount, digest)
}

func (f *fakePaymentRepo) MarkFailed(_ context.Context, paymentID, orderID uuid.UUID, amount decimal.Decimal, digest string) error {
	return f.transition(paymentID, orderID, models.PaymentStatusFailed, models.OrderStatusFailed, amount, digest)
}

func (f *fakePaymentRepo) transition(paymentID, orderID uuid.UUID, paymentStatus, orderStatus string, amount decimal.Decimal, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var payment *models.Payment
	for _, p := range f.byTranID {
		if p.ID == paymentID {
			payment = p
			break
		}
	}
	if payment == nil || payment.Status != models.PaymentStatusPending {
		return apperrors.ErrIllegalTransition
	}

	f.orders.mu.Lock()
	err := f.orders.updateStatusLocked(orderID, models.OrderStatusAwaitingPayment, orderStatus)
	f.orders.mu.Unlock()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	payment.Status = paymentStatus
	payment.VerifiedAmount = amount
	payment.NotificationDigest = digest
	if paymentStatus == models.PaymentStatusVerified {
		payment.VerifiedAt = &now
	}
	return nil
}

func (f *fakePaymentRepo) byOrder(orderID uuid.UUID) *models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.byTranID {
		if payment.OrderID == orderID {
			found := *payment
			return &found
		}
	}
	return nil
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	err     error
	session *gateway.Session
}

func (f *fakeGateway) CreateSession(_ context.Context, order *models.Order) (*gateway.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.session != nil {
		return f.session, nil
	}
	return &gateway.Session{
		TransactionID: "homeser_" + order.ID.String() + "_ab12cd34",
		SessionKey:    "sess-" + order.ID.String(),
		GatewayURL:    "https://sandbox.gateway.test/gw/" + order.ID.String(),
	}, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) VerifyIPN(url.Values) error {
	return f.err
}

type fakeCatalog struct {
	services map[uuid.UUID]catalog.Service
	err      error
}

func (f *fakeCatalog) GetService(_ context.Context, serviceID uuid.UUID) (*catalog.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	svc, ok := f.services[serviceID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &svc, nil
}

// memoryConn collects events written through the realtime hub.
type memoryConn struct {
	mu     sync.Mutex
	events []models.Event
	closed bool
}

func (c *memoryConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if event, ok := v.(models.Event); ok {
		c.events = append(c.events, event)
	}
	return nil
}

func (c *memoryConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *memoryConn) received() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Event, len(c.events))
	copy(out, c.events)
	return out
}
