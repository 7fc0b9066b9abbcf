package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	"github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type CategoryRepository struct {
	db *DB
}

var _ category.Repository = (*CategoryRepository)(nil)

func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.nameTaken(c.Name, "") {
		return apperror.ErrCategoryNameConflict
	}
	if err := r.db.injected(OpCategoryWrite); err != nil {
		return err
	}
	stored := *c
	stored.ProductCount = 0
	r.db.categories[c.ID] = stored
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.categories[id]
	if !ok {
		return nil, apperror.ErrCategoryNotFound
	}
	c.ProductCount = r.productCount(id)
	return &c, nil
}

func (r *CategoryRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	items := make([]model.Category, 0, len(r.db.categories))
	for id, c := range r.db.categories {
		c.ProductCount = r.productCount(id)
		items = append(items, c)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	total := len(items)
	page, size := 0, 0
	if f != nil {
		page, size = f.Page, f.PageSize
	}
	return paginate(items, page, size), total, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.categories[c.ID]
	if !ok {
		return apperror.ErrCategoryNotFound
	}
	if r.nameTaken(c.Name, c.ID) {
		return apperror.ErrCategoryNameConflict
	}
	if err := r.db.injected(OpCategoryWrite); err != nil {
		return err
	}
	cur.Name = c.Name
	cur.Description = c.Description
	cur.Color = c.Color
	cur.UpdatedAt = c.UpdatedAt
	r.db.categories[c.ID] = cur
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.categories[id]; !ok {
		return apperror.ErrCategoryNotFound
	}
	if r.productCount(id) > 0 {
		return apperror.ErrCategoryInUse
	}
	if err := r.db.injected(OpCategoryWrite); err != nil {
		return err
	}
	delete(r.db.categories, id)
	return nil
}

func (r *CategoryRepository) nameTaken(name, excludeID string) bool {
	for id, c := range r.db.categories {
		if id != excludeID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *CategoryRepository) productCount(categoryID string) int {
	n := 0
	for _, p := range r.db.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n
}
