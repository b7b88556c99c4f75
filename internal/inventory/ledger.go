package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"

	"go.uber.org/zap"
)

// Ledger moves stock for an order's lines. Both operations must run inside
// the caller's transaction: they lock product rows with SELECT ... FOR
// UPDATE, one at a time in ascending product id, and the locks are held
// until that transaction ends.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve decrements stock for every line of the order. Every product is
// locked and checked before the first write, so a shortfall on any line
// leaves all stock untouched.
func (l *Ledger) Reserve(ctx context.Context, tx db.DBTX, orderID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "ledger"),
		zap.String("method", "Reserve"),
		zap.Int64("order_id", orderID),
	)

	ids, demand, err := loadDemand(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return &InvalidOrderError{Reason: "order has no items"}
	}

	stock, err := lockStock(ctx, tx, ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if stock[id] < demand[id] {
			log.Info("reservation rejected",
				zap.Int64("product_id", id),
				zap.Int("have", stock[id]),
				zap.Int("need", demand[id]),
			)
			return &InsufficientStockError{ProductID: id, Have: stock[id], Need: demand[id]}
		}
	}

	for _, id := range ids {
		if err := applyDelta(ctx, tx, id, -demand[id]); err != nil {
			return err
		}
	}

	log.Debug("stock reserved", zap.Int("products", len(ids)))
	return nil
}

// Restock returns every line's quantity to stock. An order without lines is
// a no-op.
func (l *Ledger) Restock(ctx context.Context, tx db.DBTX, orderID int64) error {
	ids, demand, err := loadDemand(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := lockStock(ctx, tx, ids); err != nil {
		return err
	}

	for _, id := range ids {
		if err := applyDelta(ctx, tx, id, demand[id]); err != nil {
			return err
		}
	}

	logger.FromCtx(ctx).Debug("stock restocked",
		zap.Int64("order_id", orderID),
		zap.Int("products", len(ids)),
	)
	return nil
}

// loadDemand sums line quantities per product and returns the distinct
// product ids in ascending order.
func loadDemand(ctx context.Context, q db.DBTX, orderID int64) ([]int64, map[int64]int, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT product_id, qty FROM order_items WHERE order_id = $1",
		orderID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	demand := make(map[int64]int)
	for rows.Next() {
		var ln line
		if err := rows.Scan(&ln.ProductID, &ln.Qty); err != nil {
			return nil, nil, fmt.Errorf("scan order line: %w", err)
		}
		demand[ln.ProductID] += ln.Qty
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load order lines: %w", err)
	}

	ids := make([]int64, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, demand, nil
}

// lockStock must be given ids in ascending order.
func lockStock(ctx context.Context, q db.DBTX, ids []int64) (map[int64]int, error) {
	stock := make(map[int64]int, len(ids))
	for _, id := range ids {
		var qty int
		err := q.QueryRowContext(ctx,
			"SELECT stock_qty FROM products WHERE id = $1 FOR UPDATE",
			id,
		).Scan(&qty)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &InvalidOrderError{Reason: fmt.Sprintf("product %d not found", id)}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", id, err)
		}
		stock[id] = qty
	}
	return stock, nil
}

func applyDelta(ctx context.Context, q db.DBTX, productID int64, delta int) error {
	_, err := q.ExecContext(ctx,
		"UPDATE products SET stock_qty = stock_qty + $2, updated_at = now() WHERE id = $1",
		productID, delta,
	)
	if db.IsCheckViolation(err) {
		return fmt.Errorf("product %d: %w", productID, ErrNegativeStock)
	}
	if err != nil {
		return fmt.Errorf("update stock for product %d: %w", productID, err)
	}
	return nil
}
