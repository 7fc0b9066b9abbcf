package dto

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type ProductFilters struct {
	CategoryID  string
	LowStock    bool   // quantity <= low_stock_threshold
	SearchQuery string // name, sku or supplier, case-insensitive
	SortBy      string // name, price, quantity, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int // 0 means unpaged
}
