package handler

import (
	"github.com/fekuna/omnipos-stock-ledger/internal/dashboard"
	"github.com/fekuna/omnipos-stock-ledger/internal/response"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	uc     dashboard.UseCase
	logger logger.ZapLogger
}

func NewDashboardHandler(uc dashboard.UseCase, log logger.ZapLogger) *DashboardHandler {
	return &DashboardHandler{uc: uc, logger: log}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stock/alerts", h.LowStockAlerts)
	router.GET("/dashboard/stats", h.Stats)
}

func (h *DashboardHandler) LowStockAlerts(c *gin.Context) {
	items, err := h.uc.ComputeLowStock(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to compute low stock", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.uc.ComputeDashboardStats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to compute dashboard stats", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
