package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderCols = []string{"id", "customer_id", "reference", "status", "created_at", "updated_at"}
	itemCols  = []string{"id", "order_id", "product_id", "qty"}
	eventCols = []string{"id", "order_id", "action", "from_status", "to_status", "actor_user_id", "actor_role", "request_id", "created_at"}
)

func TestRepository_Create(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	ref := "NL-ORDER-001"
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO orders \(customer_id, reference, status\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs(int64(1), &ref, "NEW").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(10, 1, ref, "NEW", now, now))
	mock.ExpectQuery(`INSERT INTO order_items \(order_id, product_id, qty\)`).
		WithArgs(int64(10), int64(1), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WithArgs(int64(10), int64(2), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))

	o, err := NewRepository(conn).Create(context.Background(), CreateOrderInput{
		CustomerID: 1,
		Reference:  &ref,
		Items:      []ItemInput{{ProductID: 1, Qty: 2}, {ProductID: 2, Qty: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), o.ID)
	assert.Equal(t, StatusNew, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(101), o.Items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()

	t.Run("WithItems", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow(5, 9, nil, "PICKED", time.Now(), time.Now()))
		mock.ExpectQuery(`SELECT id, order_id, product_id, qty FROM order_items WHERE order_id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 5, 3, 4))

		o, err := repo.Get(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, o.Reference)
		assert.Equal(t, StatusPicked, o.Status)
		assert.Equal(t, []Item{{ID: 1, OrderID: 5, ProductID: 3, Qty: 4}}, o.Items)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, 6)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("CorruptStatus", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow(7, 1, nil, "LOST", time.Now(), time.Now()))

		_, err := repo.Get(ctx, 7)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("ForUpdate", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow(8, 1, nil, "NEW", time.Now(), time.Now()))
		mock.ExpectQuery(`FROM order_items`).
			WillReturnRows(sqlmock.NewRows(itemCols))

		o, err := repo.GetForUpdate(ctx, 8)
		require.NoError(t, err)
		assert.NotNil(t, o.Items)
		assert.Empty(t, o.Items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListEvents(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM order_events WHERE order_id = \$1 ORDER BY id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(1, 3, "STATUS_CHANGE", "NEW", "RESERVED", 7, "operator", "req-1", now).
			AddRow(2, 3, "STATUS_CHANGE", "RESERVED", "CANCELLED", nil, nil, nil, now))

	events, err := NewRepository(conn).ListEvents(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, StatusReserved, events[0].ToStatus)
	require.NotNil(t, events[0].ActorUserID)
	assert.Equal(t, int64(7), *events[0].ActorUserID)
	assert.Nil(t, events[1].ActorRole)
	assert.Equal(t, StatusCancelled, events[1].ToStatus)
}

func TestRepository_ListEventsError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(`FROM order_events`).WillReturnError(errors.New("boom"))

	_, err = NewRepository(conn).ListEvents(context.Background(), 3)
	assert.Error(t, err)
}
