package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
)

type ProductRepository struct {
	db *DB
}

var _ product.Repository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.skus[model.NormalizeSKU(p.SKU)]; taken {
		return apperror.ErrSKUConflict
	}
	if err := r.db.injected(OpProductCreate); err != nil {
		return err
	}
	r.db.products[p.ID] = *p
	r.db.skus[model.NormalizeSKU(p.SKU)] = p.ID
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[id]
	if !ok {
		return nil, apperror.ErrProductNotFound
	}
	return &p, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	items := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			items = append(items, p)
		}
	}
	return items, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.SearchQuery))
	items := []model.Product{}
	for _, p := range r.db.products {
		if f.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if f.LowStock && !p.IsLowStock() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) &&
			!strings.Contains(strings.ToLower(p.Supplier), search) {
			continue
		}
		items = append(items, p)
	}

	sortProducts(items, f.SortBy, f.SortOrder)
	total := len(items)
	return paginate(items, f.Page, f.PageSize), total, nil
}

func (r *ProductRepository) UpdateMetadata(ctx context.Context, p *model.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.products[p.ID]
	if !ok {
		return apperror.ErrProductNotFound
	}
	newSKU := model.NormalizeSKU(p.SKU)
	if owner, taken := r.db.skus[newSKU]; taken && owner != p.ID {
		return apperror.ErrSKUConflict
	}
	if err := r.db.injected(OpProductUpdate); err != nil {
		return err
	}

	r.db.setMetadata(&cur, p)
	r.db.products[p.ID] = cur

	p.Quantity = cur.Quantity
	p.InitialQuantity = cur.InitialQuantity
	return nil
}

// setMetadata copies the editable fields of src onto dst and moves the SKU
// index entry. The caller holds mu.
func (db *DB) setMetadata(dst *model.Product, src *model.Product) {
	delete(db.skus, model.NormalizeSKU(dst.SKU))
	db.skus[model.NormalizeSKU(src.SKU)] = dst.ID

	dst.SKU = src.SKU
	dst.Name = src.Name
	dst.CategoryID = src.CategoryID
	dst.Price = src.Price
	dst.LowStockThreshold = src.LowStockThreshold
	dst.Supplier = src.Supplier
	dst.Description = src.Description
	dst.UpdatedAt = src.UpdatedAt
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[id]
	if !ok {
		return apperror.ErrProductNotFound
	}
	if err := r.db.injected(OpProductDelete); err != nil {
		return err
	}

	kept := r.db.history[:0]
	for _, h := range r.db.history {
		if h.ProductID != id {
			kept = append(kept, h)
		}
	}
	r.db.history = kept
	delete(r.db.skus, model.NormalizeSKU(p.SKU))
	delete(r.db.products, id)
	return nil
}

func (r *ProductRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	owner, taken := r.db.skus[model.NormalizeSKU(sku)]
	return !taken || owner == excludeID, nil
}

func sortProducts(items []model.Product, sortBy, order string) {
	desc := !strings.EqualFold(order, "asc")
	compare := func(a, b model.Product) int {
		switch sortBy {
		case "name":
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "price":
			return a.Price.Cmp(b.Price)
		case "quantity":
			return cmpInt64(a.Quantity, b.Quantity)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := compare(items[i], items[j])
		if c == 0 {
			return items[i].ID < items[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
