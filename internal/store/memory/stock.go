package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
)

type StockRepository struct {
	db *DB
}

var _ stock.Repository = (*StockRepository)(nil)

func (r *StockRepository) ApplyMovement(ctx context.Context, productID string, fn stock.MutateFunc) (*model.Product, *model.StockHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, apperror.Storage("begin movement", err, false)
	}
	p, ok := r.db.products[productID]
	if !ok {
		return nil, nil, apperror.ErrProductNotFound
	}

	entry, err := fn(p)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return &p, nil, nil
	}

	if err := r.db.injected(OpMovementCommit); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, apperror.Storage("commit movement", err, false)
	}

	out := r.db.appendHistory(entry)
	p.Quantity = out.NewQuantity
	p.UpdatedAt = out.CreatedAt
	r.db.products[productID] = p

	out.ProductName = p.Name
	out.ProductSKU = p.SKU
	return &p, &out, nil
}

func (r *StockRepository) UpdateProduct(ctx context.Context, p *model.Product, fn stock.MutateFunc) (*model.Product, *model.StockHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, apperror.Storage("begin product edit", err, false)
	}
	cur, ok := r.db.products[p.ID]
	if !ok {
		return nil, nil, apperror.ErrProductNotFound
	}
	if owner, taken := r.db.skus[model.NormalizeSKU(p.SKU)]; taken && owner != p.ID {
		return nil, nil, apperror.ErrSKUConflict
	}

	entry, err := fn(cur)
	if err != nil {
		return nil, nil, err
	}
	if err := r.db.injected(OpProductUpdate); err != nil {
		return nil, nil, err
	}
	if entry != nil {
		if err := r.db.injected(OpMovementCommit); err != nil {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, apperror.Storage("commit product edit", err, false)
	}

	r.db.setMetadata(&cur, p)
	if entry == nil {
		r.db.products[p.ID] = cur
		return &cur, nil, nil
	}

	out := r.db.appendHistory(entry)
	cur.Quantity = out.NewQuantity
	r.db.products[p.ID] = cur

	out.ProductName = cur.Name
	out.ProductSKU = cur.SKU
	return &cur, &out, nil
}

func (r *StockRepository) FindProduct(ctx context.Context, productID string) (*model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[productID]
	if !ok {
		return nil, apperror.ErrProductNotFound
	}
	return &p, nil
}

// appendHistory stores entry with the next sequence number. The caller holds mu.
func (db *DB) appendHistory(entry *model.StockHistory) model.StockHistory {
	db.seq++
	stored := *entry
	stored.Seq = db.seq
	stored.ProductName = ""
	stored.ProductSKU = ""
	db.history = append(db.history, stored)
	return stored
}

func (r *StockRepository) ListHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.StockHistory, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var items []model.StockHistory
	for _, h := range r.db.history {
		if f.ProductID != "" && h.ProductID != f.ProductID {
			continue
		}
		if f.Type != "" && h.Type != f.Type {
			continue
		}
		if f.From != nil && h.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && h.CreatedAt.After(*f.To) {
			continue
		}
		p := r.db.products[h.ProductID]
		h.ProductName = p.Name
		h.ProductSKU = p.SKU
		items = append(items, h)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Seq > items[j].Seq
	})

	total := len(items)
	return paginate(items, f.Page, f.PageSize), total, nil
}

func (r *StockRepository) ListProductHistory(ctx context.Context, productID string) ([]model.StockHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var items []model.StockHistory
	for _, h := range r.db.history {
		if h.ProductID == productID {
			items = append(items, h)
		}
	}
	return items, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
