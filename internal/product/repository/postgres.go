package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ product.Repository = (*PGRepository)(nil)

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, sku, name, category_id, quantity, initial_quantity, price,
            low_stock_threshold, supplier, description, created_by, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :category_id, :quantity, :initial_quantity, :price,
            :low_stock_threshold, :supplier, :description, :created_by, :created_at, :updated_at
        )
    `
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return mapWriteError("create product", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProductNotFound
		}
		return nil, apperror.Storage("find product", err, false)
	}
	return &p, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var rows []model.Product
	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, apperror.Storage("find products", err, false)
	}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, apperror.Storage("find products", err, false)
	}

	byID := make(map[string]model.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	items := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return items, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.LowStock {
		conditions = append(conditions, "quantity <= low_stock_threshold")
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search OR supplier ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, apperror.Storage("count products", err, false)
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, apperror.Storage("count products", err, false)
		}
	}
	rows.Close()

	// List
	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderClause(f.SortBy, f.SortOrder))
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, apperror.Storage("list products", err, false)
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, apperror.Storage("list products", err, false)
	}
	return products, count, nil
}

func (r *PGRepository) UpdateMetadata(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET sku = :sku,
            name = :name,
            category_id = :category_id,
            price = :price,
            low_stock_threshold = :low_stock_threshold,
            supplier = :supplier,
            description = :description,
            updated_at = :updated_at
        WHERE id = :id
        RETURNING quantity, initial_quantity
    `
	q, args, err := sqlx.Named(query, p)
	if err != nil {
		return apperror.Storage("bind product update", err, false)
	}
	err = r.DB.QueryRowxContext(ctx, r.DB.Rebind(q), args...).Scan(&p.Quantity, &p.InitialQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrProductNotFound
		}
		return mapWriteError("update product", err)
	}
	return nil
}

// Delete relies on ON DELETE CASCADE so the product row and its history go
// away in one statement.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return apperror.Storage("delete product", err, false)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("delete product", err, false)
	}
	if n == 0 {
		return apperror.ErrProductNotFound
	}
	return nil
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE sku = $1`
	args := []interface{}{model.NormalizeSKU(sku)}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, apperror.Storage("check sku", err, false)
	}
	return count == 0, nil
}

func orderClause(sortBy, sortOrder string) string {
	// Whitelisted columns only
	column := "created_at"
	switch sortBy {
	case "name":
		column = "name"
	case "price":
		column = "price"
	case "quantity":
		column = "quantity"
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, id ASC", column, dir)
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return apperror.Wrap(apperror.ErrSKUConflict, err)
		case "23503":
			return apperror.Wrap(apperror.ErrCategoryNotFound, err)
		}
	}
	return apperror.Storage(op, err, false)
}
