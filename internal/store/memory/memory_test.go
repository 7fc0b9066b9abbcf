package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	categorydto "github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	productdto "github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	stockdto "github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, db *DB, id, sku string, qty int64, categoryID *string) {
	t.Helper()
	require.NoError(t, db.Products().Create(context.Background(), &model.Product{
		BaseModel:         model.BaseModel{ID: id, CreatedAt: base, UpdatedAt: base},
		SKU:               sku,
		Name:              "Product " + id,
		CategoryID:        categoryID,
		Quantity:          qty,
		InitialQuantity:   qty,
		Price:             decimal.NewFromInt(2),
		LowStockThreshold: 10,
	}))
}

func move(delta int64, at time.Time) func(model.Product) (*model.StockHistory, error) {
	return func(cur model.Product) (*model.StockHistory, error) {
		return &model.StockHistory{
			ID:               "h-" + at.Format(time.RFC3339Nano),
			ProductID:        cur.ID,
			Type:             model.MovementIn,
			Quantity:         delta,
			PreviousQuantity: cur.Quantity,
			NewQuantity:      cur.Quantity + delta,
			PerformedBy:      "u-1",
			CreatedAt:        at,
		}, nil
	}
}

func TestSKUUniqueIsCaseInsensitive(t *testing.T) {
	db := New()
	seedProduct(t, db, "p-1", "abc-1", 0, nil)

	err := db.Products().Create(context.Background(), &model.Product{BaseModel: model.BaseModel{ID: "p-2"}, SKU: "ABC-1"})
	assert.True(t, errors.Is(err, apperror.ErrSKUConflict))

	ok, err := db.Products().IsSKUUnique(context.Background(), "ABC-1", "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplyMovementAssignsSequence(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 0, nil)

	_, h1, err := db.Stock().ApplyMovement(ctx, "p-1", move(5, base))
	require.NoError(t, err)
	p, h2, err := db.Stock().ApplyMovement(ctx, "p-1", move(2, base))
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.Quantity)
	assert.Less(t, h1.Seq, h2.Seq)
	assert.Equal(t, "A", h2.ProductSKU)

	// Same timestamp falls back to insertion order, newest first.
	items, total, err := db.Stock().ListHistory(ctx, &stockdto.HistoryFilters{Page: 1, PageSize: 15})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, int64(7), items[0].NewQuantity)
}

func TestApplyMovementFaultLeavesNoTrace(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 3, nil)
	db.SetFault(func(op string) error {
		if op == OpMovementCommit {
			return errors.New("injected")
		}
		return nil
	})

	_, _, err := db.Stock().ApplyMovement(ctx, "p-1", move(4, base))
	assert.Equal(t, apperror.KindStorageFailure, apperror.KindOf(err))

	p, err := db.Products().FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Quantity)
	entries, err := db.Stock().ListProductHistory(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateProductWritesMetadataWithMovement(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 5, nil)
	seedProduct(t, db, "p-2", "B", 0, nil)

	edit := &model.Product{BaseModel: model.BaseModel{ID: "p-1", UpdatedAt: base.Add(time.Hour)}, SKU: "A-2", Name: "Renamed", Price: decimal.NewFromInt(99)}
	p, h, err := db.Stock().UpdateProduct(ctx, edit, move(4, base.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(9), p.Quantity)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, "A-2", h.ProductSKU)

	ok, err := db.Products().IsSKUUnique(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, ok)

	edit.SKU = "b"
	_, _, err = db.Stock().UpdateProduct(ctx, edit, move(1, base))
	assert.True(t, errors.Is(err, apperror.ErrSKUConflict))
}

func TestUpdateProductFaultKeepsMetadata(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 5, nil)
	db.SetFault(func(op string) error {
		if op == OpMovementCommit {
			return errors.New("injected")
		}
		return nil
	})

	edit := &model.Product{BaseModel: model.BaseModel{ID: "p-1"}, SKU: "A", Name: "Renamed", Price: decimal.NewFromInt(99)}
	_, _, err := db.Stock().UpdateProduct(ctx, edit, move(4, base))
	assert.Equal(t, apperror.KindStorageFailure, apperror.KindOf(err))

	p, err := db.Stock().FindProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Product p-1", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(5), p.Quantity)
	entries, err := db.Stock().ListProductHistory(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Without a movement the ledger commit is never reached.
	p, h, err := db.Stock().UpdateProduct(ctx, edit, func(model.Product) (*model.StockHistory, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, int64(5), p.Quantity)
}

func TestFindProductNotFound(t *testing.T) {
	_, err := New().Stock().FindProduct(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrProductNotFound))
}

func TestApplyMovementCancelledContext(t *testing.T) {
	db := New()
	seedProduct(t, db, "p-1", "A", 3, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := db.Stock().ApplyMovement(ctx, "p-1", move(1, base))
	assert.Equal(t, apperror.KindStorageFailure, apperror.KindOf(err))
}

func TestListHistoryFilters(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 0, nil)
	seedProduct(t, db, "p-2", "B", 0, nil)
	for i := 0; i < 3; i++ {
		_, _, err := db.Stock().ApplyMovement(ctx, "p-1", move(1, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	_, _, err := db.Stock().ApplyMovement(ctx, "p-2", move(1, base))
	require.NoError(t, err)

	from := base.Add(time.Hour)
	items, total, err := db.Stock().ListHistory(ctx, &stockdto.HistoryFilters{ProductID: "p-1", From: &from, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, base.Add(2*time.Hour), items[0].CreatedAt)

	items, _, err = db.Stock().ListHistory(ctx, &stockdto.HistoryFilters{Page: 9, PageSize: 15})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteProductCascadesHistory(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 0, nil)
	seedProduct(t, db, "p-2", "B", 0, nil)
	_, _, err := db.Stock().ApplyMovement(ctx, "p-1", move(1, base))
	require.NoError(t, err)
	_, _, err = db.Stock().ApplyMovement(ctx, "p-2", move(1, base))
	require.NoError(t, err)

	require.NoError(t, db.Products().Delete(ctx, "p-1"))

	_, err = db.Products().FindByID(ctx, "p-1")
	assert.True(t, errors.Is(err, apperror.ErrProductNotFound))
	_, total, err := db.Stock().ListHistory(ctx, &stockdto.HistoryFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	ok, err := db.Products().IsSKUUnique(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteProductFaultKeepsEverything(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 0, nil)
	_, _, err := db.Stock().ApplyMovement(ctx, "p-1", move(1, base))
	require.NoError(t, err)
	db.SetFault(func(op string) error { return errors.New(op) })

	assert.Error(t, db.Products().Delete(ctx, "p-1"))
	entries, err := db.Stock().ListProductHistory(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateMetadataKeepsQuantity(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 4, nil)
	seedProduct(t, db, "p-2", "B", 0, nil)

	upd := &model.Product{BaseModel: model.BaseModel{ID: "p-1"}, SKU: "b", Name: "Gizmo", Quantity: 99}
	assert.True(t, errors.Is(db.Products().UpdateMetadata(ctx, upd), apperror.ErrSKUConflict))

	upd.SKU = "C"
	require.NoError(t, db.Products().UpdateMetadata(ctx, upd))
	assert.Equal(t, int64(4), upd.Quantity)

	items, total, err := db.Products().FindAll(ctx, &productdto.ProductFilters{SearchQuery: "GIZ"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "p-1", items[0].ID)
}

func TestFindAllLowStockAndSort(t *testing.T) {
	db := New()
	ctx := context.Background()
	seedProduct(t, db, "p-1", "A", 4, nil)
	seedProduct(t, db, "p-2", "B", 50, nil)
	seedProduct(t, db, "p-3", "C", 1, nil)

	items, total, err := db.Products().FindAll(ctx, &productdto.ProductFilters{LowStock: true, SortBy: "quantity", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "p-3", items[0].ID)
	assert.Equal(t, "p-1", items[1].ID)
}

func TestCategoryLifecycle(t *testing.T) {
	db := New()
	ctx := context.Background()
	repo := db.Categories()

	require.NoError(t, repo.Create(ctx, &model.Category{BaseModel: model.BaseModel{ID: "c-1", CreatedAt: base}, Name: "Tools"}))
	assert.True(t, errors.Is(repo.Create(ctx, &model.Category{BaseModel: model.BaseModel{ID: "c-2"}, Name: "tools"}), apperror.ErrCategoryNameConflict))

	cid := "c-1"
	seedProduct(t, db, "p-1", "A", 0, &cid)

	items, total, err := repo.FindAll(ctx, &categorydto.CategoryFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, items[0].ProductCount)

	assert.True(t, errors.Is(repo.Delete(ctx, "c-1"), apperror.ErrCategoryInUse))
	require.NoError(t, db.Products().Delete(ctx, "p-1"))
	require.NoError(t, repo.Delete(ctx, "c-1"))
	assert.True(t, errors.Is(repo.Delete(ctx, "c-1"), apperror.ErrCategoryNotFound))
}
