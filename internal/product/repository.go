package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	// UpdateMetadata writes every field except quantity and initial quantity.
	UpdateMetadata(ctx context.Context, product *model.Product) error
	// Delete removes the product and all of its stock history together.
	Delete(ctx context.Context, id string) error

	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
}
