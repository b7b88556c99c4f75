package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"warehouse-be/internal/db"
)

type Repository interface {
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (time.Time, error)
	InsertEvent(ctx context.Context, ev *Event) error
	ListEvents(ctx context.Context, orderID int64) ([]Event, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository binds the repository to q, which is either the pool or
// the transaction the caller is running in.
func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const orderColumns = "id, customer_id, reference, status, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Reference, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// Create inserts the order in NEW together with its items. It must run in a
// transaction for the pair to be atomic.
func (r *repository) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"INSERT INTO orders (customer_id, reference, status) VALUES ($1, $2, $3) RETURNING "+orderColumns,
		in.CustomerID, in.Reference, StatusNew,
	))
	if err != nil {
		return nil, err
	}

	o.Items = make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		item := Item{OrderID: o.ID, ProductID: it.ProductID, Qty: it.Qty}
		err := r.db.QueryRowContext(ctx,
			"INSERT INTO order_items (order_id, product_id, qty) VALUES ($1, $2, $3) RETURNING id",
			o.ID, it.ProductID, it.Qty,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	return o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	return r.load(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

// GetForUpdate locks the order row until the surrounding transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	return r.load(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
}

func (r *repository) load(ctx context.Context, query string, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, qty FROM order_items WHERE order_id = $1 ORDER BY id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	o.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	return o, nil
}

// UpdateStatus only applies when the row is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx,
		"UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2 RETURNING updated_at",
		id, from, to,
	).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrConcurrentWrite
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("update order status: %w", err)
	}
	return updatedAt, nil
}

func (r *repository) InsertEvent(ctx context.Context, ev *Event) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO order_events (order_id, action, from_status, to_status, actor_user_id, actor_role, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		ev.OrderID, ev.Action, ev.FromStatus, ev.ToStatus, ev.ActorUserID, ev.ActorRole, ev.RequestID,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

func (r *repository) ListEvents(ctx context.Context, orderID int64) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, action, from_status, to_status, actor_user_id, actor_role, request_id, created_at
		 FROM order_events WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list order events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(
			&ev.ID, &ev.OrderID, &ev.Action, &ev.FromStatus, &ev.ToStatus,
			&ev.ActorUserID, &ev.ActorRole, &ev.RequestID, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
