package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

const (
	DefaultHistoryPageSize = 15
	MaxHistoryPageSize     = 100
)

type HistoryFilters struct {
	ProductID string
	Type      model.MovementType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int // 0 means unpaged
}

// Normalize clamps paging for callers that always want a page.
func (f *HistoryFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultHistoryPageSize
	}
	if f.PageSize > MaxHistoryPageSize {
		f.PageSize = MaxHistoryPageSize
	}
}

type HistoryPage struct {
	Entries  []model.StockHistory `json:"entries"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Pages    int                  `json:"pages"`
}

type Reconciliation struct {
	ProductID       string `json:"product_id"`
	InitialQuantity int64  `json:"initial_quantity"`
	SumOfDeltas     int64  `json:"sum_of_deltas"`
	Expected        int64  `json:"expected"`
	Actual          int64  `json:"actual"`
	Entries         int    `json:"entries"`
	Consistent      bool   `json:"consistent"`
	// Index of the first entry whose previous_quantity does not continue the chain, -1 if none.
	FirstBreak int `json:"first_break"`
}
