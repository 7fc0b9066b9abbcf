package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/lock"
	stockusecase "github.com/fekuna/omnipos-stock-ledger/internal/stock/usecase"
	"github.com/fekuna/omnipos-stock-ledger/internal/store/memory"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDashboardStats(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	cat := "c-1"
	require.NoError(t, db.Categories().Create(ctx, &model.Category{BaseModel: model.BaseModel{ID: cat}, Name: "Tools", Color: "#123456"}))
	for i, p := range []model.Product{
		{BaseModel: model.BaseModel{ID: "p-1"}, SKU: "A", Name: "Anvil", Price: decimal.RequireFromString("12.50"), LowStockThreshold: 10, CategoryID: &cat},
		{BaseModel: model.BaseModel{ID: "p-2"}, SKU: "B", Name: "Bolt", Price: decimal.RequireFromString("0.25"), Quantity: 40, InitialQuantity: 40, LowStockThreshold: 10},
	} {
		p.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, db.Products().Create(ctx, &p))
	}

	ledger := stockusecase.NewStockUseCase(db.Stock(), lock.NewLocal(), nil, logger.NewNop(), stockusecase.Options{})
	for _, qty := range []int64{4, 2} {
		_, _, err := ledger.ApplyMovement(ctx, &dto.MovementInput{ProductID: "p-1", Type: model.MovementIn, Magnitude: qty, ActorID: "u-1"})
		require.NoError(t, err)
	}
	_, _, err := ledger.ApplyMovement(ctx, &dto.MovementInput{ProductID: "p-2", Type: model.MovementOut, Magnitude: 5, ActorID: "u-1"})
	require.NoError(t, err)

	uc := NewDashboardUseCase(db.Products(), db.Categories(), db.Stock(), logger.NewNop(), Options{RecentLimit: 2})
	stats, err := uc.ComputeDashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Stats.TotalProducts)
	assert.Equal(t, 1, stats.Stats.TotalCategories)
	assert.Equal(t, 1, stats.Stats.LowStockCount)
	// 6 * 12.50 + 35 * 0.25
	assert.Equal(t, "83.75", stats.Stats.TotalValuation.StringFixed(2))
	assert.Len(t, stats.RecentMovements, 2)
	assert.Equal(t, model.MovementOut, stats.RecentMovements[0].Type)

	var in, out int64
	for _, p := range stats.MovementSeries {
		switch p.Type {
		case model.MovementIn:
			in += p.Total
		case model.MovementOut:
			out += p.Total
		}
	}
	assert.Equal(t, int64(6), in)
	assert.Equal(t, int64(5), out)

	require.Len(t, stats.CategoryDistribution, 2)

	low, err := uc.ComputeLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "p-1", low[0].ProductID)
	assert.Equal(t, int64(60), low[0].StockLevelPercent)
}

func TestComputeDashboardStatsEmpty(t *testing.T) {
	db := memory.New()
	uc := NewDashboardUseCase(db.Products(), db.Categories(), db.Stock(), logger.NewNop(), Options{})

	stats, err := uc.ComputeDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Stats.TotalProducts)
	assert.True(t, stats.Stats.TotalValuation.IsZero())
	assert.NotNil(t, stats.RecentMovements)
	assert.NotNil(t, stats.MovementSeries)
	assert.NotNil(t, stats.CategoryDistribution)
}
