package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, *model.StockHistory, error)
	DeleteProduct(ctx context.Context, id string) error
}

// QuantityEditor is the slice of the stock ledger the registry needs.
type QuantityEditor interface {
	// EditProduct saves p's metadata together with an adjustment to
	// newQuantity. Either both are stored or neither is.
	EditProduct(ctx context.Context, p *model.Product, newQuantity int64, actorID, note string) (*model.Product, *model.StockHistory, error)
}
