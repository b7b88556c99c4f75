package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	maxSKULen       = 64
)

type Service interface {
	Create(ctx context.Context, in CreateProductInput) (Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context, limit, offset int) ([]Product, error)
	AdjustStock(ctx context.Context, id int64, delta int) (Product, error)
}

type service struct {
	conn *sql.DB
	repo Repository
}

func NewService(conn *sql.DB) Service {
	return &service{conn: conn, repo: NewRepository(conn)}
}

func (s *service) Create(ctx context.Context, in CreateProductInput) (Product, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)

	switch {
	case in.SKU == "" || len(in.SKU) > maxSKULen:
		return Product{}, apperr.Validation("sku is required and must be at most 64 characters")
	case in.Name == "":
		return Product{}, apperr.Validation("name is required")
	case in.StockQty < 0:
		return Product{}, apperr.Validation("stock_qty must be >= 0")
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return Product{}, classify(err, "could not create product")
	}

	logger.FromCtx(ctx).Info("product created",
		zap.Int64("product_id", p.ID),
		zap.String("sku", p.SKU),
	)
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, classify(err, "could not load product")
	}
	return p, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, classify(err, "could not list products")
	}
	return products, nil
}

// AdjustStock applies delta under the product row lock. The result may never
// be negative.
func (s *service) AdjustStock(ctx context.Context, id int64, delta int) (Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AdjustStock"),
		zap.Int64("product_id", id),
	)

	if delta == 0 {
		return Product{}, apperr.Validation("delta must be non-zero")
	}

	var out Product
	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		repo := NewRepository(tx)

		have, err := repo.LockStock(ctx, id)
		if err != nil {
			return err
		}
		if have+delta < 0 {
			return ErrNegativeStock
		}

		out, err = repo.SetStock(ctx, id, have+delta)
		return err
	})
	if err != nil {
		return Product{}, classify(err, "could not adjust stock")
	}

	log.Info("stock adjusted", zap.Int("delta", delta), zap.Int("stock_qty", out.StockQty))
	return out, nil
}

// classify passes classified errors through and hides everything else
// behind an internal error.
func classify(err error, detail string) error {
	var k apperr.Kinded
	if errors.As(err, &k) {
		return err
	}
	return apperr.Internal(detail, err)
}
