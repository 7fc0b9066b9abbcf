package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	SKU               string
	Name              string
	CategoryID        string
	Quantity          int64
	Price             decimal.Decimal
	LowStockThreshold *int64 // nil means the default
	Supplier          string
	Description       string
	UserID            string
}

// UpdateProductInput replaces metadata. A nil LowStockThreshold keeps the
// current value; a non-nil Quantity is routed through the stock ledger.
type UpdateProductInput struct {
	ID                string
	SKU               string
	Name              string
	CategoryID        string
	Price             decimal.Decimal
	LowStockThreshold *int64
	Supplier          string
	Description       string
	Quantity          *int64
	UserID            string
}
