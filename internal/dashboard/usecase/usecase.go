package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	categorydto "github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/dashboard"
	"github.com/fekuna/omnipos-stock-ledger/internal/dashboard/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	productdto "github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	stockdto "github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"go.uber.org/zap"
)

type Options struct {
	SeriesDays  int
	RecentLimit int
	Now         func() time.Time
}

type dashboardUseCase struct {
	products   product.Repository
	categories category.Repository
	history    stock.Repository
	logger     logger.ZapLogger
	opts       Options
}

func NewDashboardUseCase(products product.Repository, categories category.Repository, history stock.Repository, log logger.ZapLogger, opts Options) dashboard.UseCase {
	if opts.SeriesDays <= 0 {
		opts.SeriesDays = 7
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &dashboardUseCase{
		products:   products,
		categories: categories,
		history:    history,
		logger:     log,
		opts:       opts,
	}
}

func (uc *dashboardUseCase) ComputeLowStock(ctx context.Context) ([]dto.LowStockItem, error) {
	products, _, err := uc.products.FindAll(ctx, &productdto.ProductFilters{LowStock: true})
	if err != nil {
		return nil, err
	}
	return LowStock(products), nil
}

func (uc *dashboardUseCase) ComputeDashboardStats(ctx context.Context) (*dto.DashboardStats, error) {
	products, _, err := uc.products.FindAll(ctx, &productdto.ProductFilters{})
	if err != nil {
		return nil, err
	}
	categories, totalCategories, err := uc.categories.FindAll(ctx, &categorydto.CategoryFilters{})
	if err != nil {
		return nil, err
	}

	recent, _, err := uc.history.ListHistory(ctx, &stockdto.HistoryFilters{Page: 1, PageSize: uc.opts.RecentLimit})
	if err != nil {
		return nil, err
	}
	cutoff := uc.opts.Now().Add(-time.Duration(uc.opts.SeriesDays) * 24 * time.Hour)
	window, _, err := uc.history.ListHistory(ctx, &stockdto.HistoryFilters{From: &cutoff})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.StockHistory{}
	}

	stats := &dto.DashboardStats{
		Stats: dto.Stats{
			TotalProducts:   len(products),
			TotalCategories: totalCategories,
			LowStockCount:   len(LowStock(products)),
			TotalValuation:  Valuation(products),
		},
		RecentMovements:      recent,
		MovementSeries:       MovementSeries(window, cutoff),
		CategoryDistribution: CategoryDistribution(products, categories),
	}
	uc.logger.Debug("dashboard stats computed",
		zap.Int("products", stats.Stats.TotalProducts),
		zap.Int("series_points", len(stats.MovementSeries)),
	)
	return stats, nil
}

