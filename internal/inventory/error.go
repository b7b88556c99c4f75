package inventory

import (
	"fmt"

	"warehouse-be/internal/apperr"
)

var (
	ErrProductNotFound = apperr.NotFound("product not found")
	ErrSKUExists       = apperr.Conflict("sku already exists")
	ErrNegativeStock   = apperr.Conflict("stock cannot go below zero")
)

// InsufficientStockError reports the first product, in ascending id order,
// whose stock cannot cover the order's demand.
type InsufficientStockError struct {
	ProductID int64
	Have      int
	Need      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: have %d, need %d", e.ProductID, e.Have, e.Need)
}

func (e *InsufficientStockError) Kind() apperr.Kind { return apperr.KindConflict }

// InvalidOrderError means the order's lines cannot be reserved at all: no
// lines, or a line referencing a product that does not exist.
type InvalidOrderError struct {
	Reason string
}

func (e *InvalidOrderError) Error() string { return e.Reason }

func (e *InvalidOrderError) Kind() apperr.Kind { return apperr.KindBadRequest }
