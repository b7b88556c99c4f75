package inventory

import "time"

type Product struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	StockQty  int       `json:"stock_qty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateProductInput struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	StockQty int    `json:"stock_qty"`
}

// line is one order line as seen by the ledger.
type line struct {
	ProductID int64
	Qty       int
}
