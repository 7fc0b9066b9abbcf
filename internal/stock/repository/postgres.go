package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ stock.Repository = (*PGRepository)(nil)

const insertHistoryQuery = `
    INSERT INTO stock_history (
        id, product_id, type, quantity, previous_quantity, new_quantity,
        note, performed_by, created_at
    )
    VALUES (
        :id, :product_id, :type, :quantity, :previous_quantity, :new_quantity,
        :note, :performed_by, :created_at
    )
    RETURNING seq
`

func (r *PGRepository) ApplyMovement(ctx context.Context, productID string, fn stock.MutateFunc) (*model.Product, *model.StockHistory, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, apperror.Storage("begin transaction", err, isTransient(err))
	}
	defer tx.Rollback()

	// 1. Lock the product row for the rest of the transaction
	var p model.Product
	err = tx.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 FOR UPDATE`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrProductNotFound
		}
		return nil, nil, apperror.Storage("lock product", err, isTransient(err))
	}

	// 2. Compute the movement on the locked snapshot
	entry, err := fn(p)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return &p, nil, nil
	}

	// 3. Update quantity
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET quantity = $1, updated_at = $2 WHERE id = $3`,
		entry.NewQuantity, entry.CreatedAt, p.ID,
	)
	if err != nil {
		return nil, nil, apperror.Storage("update quantity", err, isTransient(err))
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return nil, nil, apperror.Storage("update quantity", fmt.Errorf("%d rows affected", n), false)
	}

	// 4. Append history
	if err := appendHistory(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		// Only a serialization abort proves the commit did not happen.
		return nil, nil, apperror.Storage("commit movement", err, isSerializationFailure(err))
	}

	p.Quantity = entry.NewQuantity
	p.UpdatedAt = entry.CreatedAt
	entry.ProductName = p.Name
	entry.ProductSKU = p.SKU
	return &p, entry, nil
}

const updateProductQuery = `
    UPDATE products
    SET sku = :sku,
        name = :name,
        category_id = :category_id,
        price = :price,
        low_stock_threshold = :low_stock_threshold,
        supplier = :supplier,
        description = :description,
        quantity = :quantity,
        updated_at = :updated_at
    WHERE id = :id
`

func (r *PGRepository) UpdateProduct(ctx context.Context, p *model.Product, fn stock.MutateFunc) (*model.Product, *model.StockHistory, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, apperror.Storage("begin transaction", err, isTransient(err))
	}
	defer tx.Rollback()

	var locked model.Product
	err = tx.GetContext(ctx, &locked, `SELECT * FROM products WHERE id = $1 FOR UPDATE`, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrProductNotFound
		}
		return nil, nil, apperror.Storage("lock product", err, isTransient(err))
	}

	entry, err := fn(locked)
	if err != nil {
		return nil, nil, err
	}

	updated := *p
	updated.CreatedAt = locked.CreatedAt
	updated.Quantity = locked.Quantity
	updated.InitialQuantity = locked.InitialQuantity
	if entry != nil {
		updated.Quantity = entry.NewQuantity
	}

	query, args, err := sqlx.Named(updateProductQuery, updated)
	if err != nil {
		return nil, nil, apperror.Storage("bind product update", err, false)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, nil, mapWriteError("update product", err)
	}

	if entry != nil {
		if err := appendHistory(ctx, tx, entry); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apperror.Storage("commit product edit", err, isSerializationFailure(err))
	}

	if entry != nil {
		entry.ProductName = updated.Name
		entry.ProductSKU = updated.SKU
	}
	return &updated, entry, nil
}

func (r *PGRepository) FindProduct(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProductNotFound
		}
		return nil, apperror.Storage("find product", err, false)
	}
	return &p, nil
}

func appendHistory(ctx context.Context, tx *sqlx.Tx, entry *model.StockHistory) error {
	query, args, err := sqlx.Named(insertHistoryQuery, entry)
	if err != nil {
		return apperror.Storage("bind history insert", err, false)
	}
	if err := tx.QueryRowxContext(ctx, tx.Rebind(query), args...).Scan(&entry.Seq); err != nil {
		return apperror.Storage("append history", err, isTransient(err))
	}
	return nil
}

func (r *PGRepository) ListHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.StockHistory, int, error) {
	var items []model.StockHistory
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "h.product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Type != "" {
		conditions = append(conditions, "h.type = :type")
		args["type"] = string(f.Type)
	}
	if f.From != nil {
		conditions = append(conditions, "h.created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "h.created_at <= :to")
		args["to"] = *f.To
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_history h" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, apperror.Storage("count history", err, false)
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, apperror.Storage("count history", err, false)
		}
	}
	rows.Close()

	query := `SELECT h.*, p.name AS product_name, p.sku AS product_sku
        FROM stock_history h JOIN products p ON p.id = h.product_id` +
		whereClause + " ORDER BY h.created_at DESC, h.seq DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, apperror.Storage("list history", err, false)
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, apperror.Storage("list history", err, false)
	}
	return items, count, nil
}

func (r *PGRepository) ListProductHistory(ctx context.Context, productID string) ([]model.StockHistory, error) {
	var items []model.StockHistory
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM stock_history WHERE product_id = $1 ORDER BY seq ASC`, productID)
	if err != nil {
		return nil, apperror.Storage("list product history", err, false)
	}
	return items, nil
}

// isTransient reports errors raised before commit that are worth another
// attempt: dropped connections and SQLSTATE class 08/40.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := pqErr.Code.Class()
		return class == "08" || class == "40"
	}
	return false
}

// mapWriteError maps constraint violations of a product edit to domain errors.
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
	return apperror.Storage(op, err, isTransient(err))
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "40"
}
