package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"homeser-core/apperrors"
	"homeser-core/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestUpdateStatus_GuardedTransitionApplies(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewGormOrderRepository(gormDB)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), orderID,
		models.OrderStatusPending, models.OrderStatusAwaitingPayment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_StateMismatchRejected(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewGormOrderRepository(gormDB)
	orderID := uuid.New()

	// Zero rows affected: the order was not in the expected state.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), orderID,
		models.OrderStatusAwaitingPayment, models.OrderStatusPaid)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_IllegalTransitionNeverHitsStorage(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewGormOrderRepository(gormDB)

	// pending -> paid skips awaiting_payment and is rejected before any SQL.
	err := repo.UpdateStatus(context.Background(), uuid.New(),
		models.OrderStatusPending, models.OrderStatusPaid)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUserID_Paginates(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewGormOrderRepository(gormDB)
	orderID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders"`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "total", "currency", "status", "cart_version", "created_at", "updated_at"}).
			AddRow(orderID, "user-1", decimal.NewFromInt(1800), "BDT", models.OrderStatusPaid, 3, now, now))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "service_id", "quantity", "unit_price"}).
			AddRow(uuid.New(), orderID, uuid.New(), 2, decimal.NewFromInt(500)))

	orders, total, err := repo.FindByUserID(context.Background(), "user-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPaid, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
