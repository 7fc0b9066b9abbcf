package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
)

type UseCase interface {
	ApplyMovement(ctx context.Context, input *dto.MovementInput) (*model.Product, *model.StockHistory, error)
	EditProductQuantity(ctx context.Context, productID string, newQuantity int64, actorID, note string) (*model.Product, *model.StockHistory, error)
	EditProduct(ctx context.Context, p *model.Product, newQuantity int64, actorID, note string) (*model.Product, *model.StockHistory, error)
	QueryHistory(ctx context.Context, filters *dto.HistoryFilters) (*dto.HistoryPage, error)
	Reconcile(ctx context.Context, productID string) (*dto.Reconciliation, error)
}
