package dto

import (
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityOutOfStock Severity = "out_of_stock"
	SeverityCritical   Severity = "critical"
	SeverityLow        Severity = "low"
)

type LowStockItem struct {
	ProductID         string   `json:"product_id"`
	SKU               string   `json:"sku"`
	Name              string   `json:"name"`
	CategoryID        *string  `json:"category_id"`
	Quantity          int64    `json:"quantity"`
	LowStockThreshold int64    `json:"low_stock_threshold"`
	Severity          Severity `json:"severity"`
	StockLevelPercent int64    `json:"stock_level_percent"`
}

type Stats struct {
	TotalProducts   int             `json:"total_products"`
	TotalCategories int             `json:"total_categories"`
	LowStockCount   int             `json:"low_stock_count"`
	TotalValuation  decimal.Decimal `json:"total_valuation"`
}

// SeriesPoint is the summed magnitude for one UTC day and movement type.
type SeriesPoint struct {
	Date  string             `json:"date"`
	Type  model.MovementType `json:"type"`
	Total int64              `json:"total"`
}

type CategorySlice struct {
	CategoryID *string `json:"category_id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Count      int     `json:"count"`
}

type DashboardStats struct {
	Stats                Stats                `json:"stats"`
	RecentMovements      []model.StockHistory `json:"recent_movements"`
	MovementSeries       []SeriesPoint        `json:"movement_series"`
	CategoryDistribution []CategorySlice      `json:"category_distribution"`
}
