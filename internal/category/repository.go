package category

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	// FindAll returns categories newest first with ProductCount populated.
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, category *model.Category) error
	// Delete refuses with a conflict while any product references the category.
	Delete(ctx context.Context, id string) error
}
