package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/dashboard/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const (
	seriesDateLayout  = "2006-01-02"
	uncategorizedName = "Uncategorized"
)

func SeverityOf(quantity, threshold int64) dto.Severity {
	switch {
	case quantity == 0:
		return dto.SeverityOutOfStock
	case 2*quantity <= threshold:
		return dto.SeverityCritical
	}
	return dto.SeverityLow
}

func StockLevelPercent(quantity, threshold int64) int64 {
	if threshold <= 0 {
		return 0
	}
	return min(100, quantity*100/threshold)
}

// LowStock keeps products at or below their threshold, lowest quantity first.
func LowStock(products []model.Product) []dto.LowStockItem {
	items := []dto.LowStockItem{}
	for _, p := range products {
		if !p.IsLowStock() {
			continue
		}
		items = append(items, dto.LowStockItem{
			ProductID:         p.ID,
			SKU:               p.SKU,
			Name:              p.Name,
			CategoryID:        p.CategoryID,
			Quantity:          p.Quantity,
			LowStockThreshold: p.LowStockThreshold,
			Severity:          SeverityOf(p.Quantity, p.LowStockThreshold),
			StockLevelPercent: StockLevelPercent(p.Quantity, p.LowStockThreshold),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity < items[j].Quantity
		}
		return items[i].Name < items[j].Name
	})
	return items
}

func Valuation(products []model.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return total
}

// MovementSeries sums magnitudes per UTC day and type for entries at or after
// cutoff. Only buckets with entries are returned.
func MovementSeries(entries []model.StockHistory, cutoff time.Time) []dto.SeriesPoint {
	type key struct {
		date string
		typ  model.MovementType
	}
	totals := map[key]int64{}
	for _, h := range entries {
		if h.CreatedAt.Before(cutoff) {
			continue
		}
		totals[key{h.CreatedAt.UTC().Format(seriesDateLayout), h.Type}] += h.Quantity
	}

	points := make([]dto.SeriesPoint, 0, len(totals))
	for k, v := range totals {
		points = append(points, dto.SeriesPoint{Date: k.date, Type: k.typ, Total: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Date != points[j].Date {
			return points[i].Date < points[j].Date
		}
		return points[i].Type < points[j].Type
	})
	return points
}

// CategoryDistribution counts products per category. Products without a
// category, or pointing at one that no longer exists, fall into Uncategorized.
func CategoryDistribution(products []model.Product, categories []model.Category) []dto.CategorySlice {
	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	slices := map[string]*dto.CategorySlice{}
	for _, p := range products {
		key := ""
		if p.CategoryID != nil {
			if _, ok := byID[*p.CategoryID]; ok {
				key = *p.CategoryID
			}
		}
		s, ok := slices[key]
		if !ok {
			s = &dto.CategorySlice{Name: uncategorizedName, Color: model.DefaultCategoryColor}
			if c, found := byID[key]; found {
				id := c.ID
				s.CategoryID = &id
				s.Name = c.Name
				if c.Color != "" {
					s.Color = c.Color
				}
			}
			slices[key] = s
		}
		s.Count++
	}

	out := make([]dto.CategorySlice, 0, len(slices))
	for _, s := range slices {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
