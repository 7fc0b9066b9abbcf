package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/store/memory"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryUseCase(t *testing.T) {
	db := memory.New()
	uc := NewCategoryUseCase(db.Categories(), logger.NewNop())
	ctx := context.Background()

	_, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "  "})
	assert.True(t, errors.Is(err, apperror.ErrNameRequired))

	cat, err := uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: " Tools ", UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "Tools", cat.Name)
	assert.Equal(t, model.DefaultCategoryColor, cat.Color)

	_, err = uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "TOOLS"})
	assert.True(t, errors.Is(err, apperror.ErrCategoryNameConflict))

	updated, err := uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: cat.ID, Name: "Hand tools", Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", updated.Color)

	_, err = uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{ID: "missing", Name: "x"})
	assert.True(t, errors.Is(err, apperror.ErrCategoryNotFound))

	require.NoError(t, db.Products().Create(ctx, &model.Product{
		BaseModel: model.BaseModel{ID: "p-1"}, SKU: "A", CategoryID: &cat.ID,
	}))
	items, total, err := uc.ListCategories(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, items[0].ProductCount)

	assert.True(t, errors.Is(uc.DeleteCategory(ctx, cat.ID), apperror.ErrCategoryInUse))
	require.NoError(t, db.Products().Delete(ctx, "p-1"))
	require.NoError(t, uc.DeleteCategory(ctx, cat.ID))

	items, _, err = uc.ListCategories(ctx, &dto.CategoryFilters{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
