package dashboard

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/dashboard/dto"
)

// UseCase derives read-only views. Nothing is cached; every call reads the
// stores afresh.
type UseCase interface {
	ComputeLowStock(ctx context.Context) ([]dto.LowStockItem, error)
	ComputeDashboardStats(ctx context.Context) (*dto.DashboardStats, error)
}
