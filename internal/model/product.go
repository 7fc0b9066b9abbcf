package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultLowStockThreshold int64 = 10

// MaxQuantity bounds on-hand quantity and movement magnitudes so sums over a
// ledger stay far from int64 overflow.
const MaxQuantity int64 = 1_000_000_000_000

type Product struct {
	BaseModel
	SKU               string          `db:"sku" json:"sku"`
	Name              string          `db:"name" json:"name"`
	CategoryID        *string         `db:"category_id" json:"category_id"` // Nullable
	Quantity          int64           `db:"quantity" json:"quantity"`
	InitialQuantity   int64           `db:"initial_quantity" json:"initial_quantity"`
	Price             decimal.Decimal `db:"price" json:"price"`
	LowStockThreshold int64           `db:"low_stock_threshold" json:"low_stock_threshold"`
	Supplier          string          `db:"supplier" json:"supplier"`
	Description       string          `db:"description" json:"description"`
	CreatedBy         *string         `db:"created_by" json:"created_by"`
}

func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// NormalizeSKU trims and upper-cases a SKU so uniqueness is case-insensitive.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
