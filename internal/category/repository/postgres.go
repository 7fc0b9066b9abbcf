package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	"github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ category.Repository = (*PGRepository)(nil)

const selectWithCount = `
    SELECT c.*, COALESCE(pc.n, 0) AS product_count
    FROM categories c
    LEFT JOIN (
        SELECT category_id, count(*) AS n FROM products GROUP BY category_id
    ) pc ON pc.category_id = c.id
`

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (id, name, description, color, created_by, created_at, updated_at)
        VALUES (:id, :name, :description, :color, :created_by, :created_at, :updated_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, c); err != nil {
		return mapWriteError("create category", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.DB.GetContext(ctx, &c, selectWithCount+" WHERE c.id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrCategoryNotFound
		}
		return nil, apperror.Storage("find category", err, false)
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	var categories []model.Category
	var count int

	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM categories"); err != nil {
		return nil, 0, apperror.Storage("count categories", err, false)
	}

	query := selectWithCount + " ORDER BY c.created_at DESC, c.id ASC"
	if f != nil && f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, 0, apperror.Storage("list categories", err, false)
	}
	return categories, count, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	query := `
        UPDATE categories
        SET name = :name,
            description = :description,
            color = :color,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, c)
	if err != nil {
		return mapWriteError("update category", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrCategoryNotFound
	}
	return nil
}

// Delete locks the category row, which blocks concurrent product inserts
// referencing it, before checking that no product uses it.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Storage("begin transaction", err, false)
	}
	defer tx.Rollback()

	var locked string
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrCategoryNotFound
		}
		return apperror.Storage("lock category", err, false)
	}

	var inUse int
	if err := tx.GetContext(ctx, &inUse, `SELECT count(*) FROM products WHERE category_id = $1`, id); err != nil {
		return apperror.Storage("count category products", err, false)
	}
	if inUse > 0 {
		return apperror.ErrCategoryInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return apperror.Storage("delete category", err, false)
	}
	if err := tx.Commit(); err != nil {
		return apperror.Storage("commit category delete", err, false)
	}
	return nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperror.Wrap(apperror.ErrCategoryNameConflict, err)
	}
	return apperror.Storage(op, err, false)
}
