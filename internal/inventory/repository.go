package inventory

import (
	"context"
	"database/sql"
	"errors"

	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, in CreateProductInput) (Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context, limit, offset int) ([]Product, error)
	LockStock(ctx context.Context, id int64) (int, error)
	SetStock(ctx context.Context, id int64, qty int) (Product, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const productColumns = "id, sku, name, stock_qty, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.StockQty, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Create(ctx context.Context, in CreateProductInput) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"INSERT INTO products (sku, name, stock_qty) VALUES ($1, $2, $3) RETURNING "+productColumns,
		in.SKU, in.Name, in.StockQty,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, ErrSKUExists
		}
		logger.FromCtx(ctx).Error("db: failed to insert product",
			zap.String("sku", in.SKU),
			zap.Error(err),
		)
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if db.IsCheckViolation(err) {
		return Product{}, ErrNegativeStock
	}
	return p, err
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY id LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) LockStock(ctx context.Context, id int64) (int, error) {
	var qty int
	err := r.db.QueryRowContext(ctx,
		"SELECT stock_qty FROM products WHERE id = $1 FOR UPDATE", id,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return qty, err
}

func (r *repository) SetStock(ctx context.Context, id int64, qty int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"UPDATE products SET stock_qty = $2, updated_at = now() WHERE id = $1 RETURNING "+productColumns,
		id, qty,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}
