package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
)

// MutateFunc computes the ledger entry for a locked product snapshot. A nil
// entry with a nil error means nothing changes and nothing is written.
type MutateFunc func(current model.Product) (*model.StockHistory, error)

type Repository interface {
	// ApplyMovement holds the product row exclusively while fn runs, then
	// writes quantity = entry.NewQuantity and appends entry in one transaction.
	ApplyMovement(ctx context.Context, productID string, fn MutateFunc) (*model.Product, *model.StockHistory, error)

	// UpdateProduct writes p's metadata and, when fn returns an entry, the new
	// quantity and that entry, all in one transaction. p's quantity fields are
	// ignored.
	UpdateProduct(ctx context.Context, p *model.Product, fn MutateFunc) (*model.Product, *model.StockHistory, error)

	// FindProduct reads the product row without taking a row lock.
	FindProduct(ctx context.Context, productID string) (*model.Product, error)

	// History store reads. Entries are never updated or deleted one by one.
	ListHistory(ctx context.Context, filters *dto.HistoryFilters) ([]model.StockHistory, int, error)
	ListProductHistory(ctx context.Context, productID string) ([]model.StockHistory, error)
}
