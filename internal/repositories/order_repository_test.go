package repositories

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub_backend/internal/orderflow"
)

func newOrderRepoFixture(t *testing.T) (OrderRepository, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderRepository(db), db, mock
}

func TestUpdateOrderStatusAppliesGuardedUpdate(t *testing.T) {
	repo, db, mock := newOrderRepoFixture(t)
	updatedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE orders SET status = $1, completed_at = $2, updated_at = $3 WHERE id = $4 AND status = $5`)).
		WithArgs(string(orderflow.StatusPreparing), nil, updatedAt, int64(42), string(orderflow.StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateOrderStatus(db, 42, orderflow.StatusPending, orderflow.StatusPreparing, nil, updatedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusReportsLostRace(t *testing.T) {
	repo, db, mock := newOrderRepoFixture(t)
	updatedAt := time.Now()

	// Another transition already moved the order off pending; the guarded
	// update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE orders SET status = $1, completed_at = $2, updated_at = $3 WHERE id = $4 AND status = $5`)).
		WithArgs(string(orderflow.StatusPreparing), nil, updatedAt, int64(42), string(orderflow.StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateOrderStatus(db, 42, orderflow.StatusPending, orderflow.StatusPreparing, nil, updatedAt)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderItemsRemovesOptionsFirst(t *testing.T) {
	repo, db, mock := newOrderRepoFixture(t)

	// Option rows referencing the items must go before the items themselves.
	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM order_item_options WHERE order_item_id IN (SELECT id FROM order_items WHERE order_id = $1)`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM order_items WHERE order_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteOrderItemsByOrderID(db, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
