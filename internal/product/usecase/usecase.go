package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoteProductEdit is recorded on history entries created by product edits.
const NoteProductEdit = "Product edit"

const indexTimeout = 5 * time.Second

type productUseCase struct {
	repo       product.Repository
	categories category.Repository
	stock      product.QuantityEditor
	es         SearchIndex
	logger     logger.ZapLogger

	indexOnce sync.Once
}

// NewProductUseCase wires the registry. es may be nil to serve search from
// the database only.
func NewProductUseCase(repo product.Repository, categories category.Repository, stock product.QuantityEditor, es SearchIndex, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:       repo,
		categories: categories,
		stock:      stock,
		es:         es,
		logger:     log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	sku := model.NormalizeSKU(input.SKU)
	name := strings.TrimSpace(input.Name)
	threshold := model.DefaultLowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}

	switch {
	case sku == "":
		return nil, apperror.ErrSKURequired
	case name == "":
		return nil, apperror.ErrNameRequired
	case input.Price.IsNegative():
		return nil, apperror.ErrInvalidPrice
	case !hasCents(input.Price):
		return nil, apperror.ErrPricePrecision
	case threshold < 0:
		return nil, apperror.ErrInvalidThreshold
	case input.Quantity < 0:
		return nil, apperror.ErrInvalidQuantity
	case input.Quantity > model.MaxQuantity:
		return nil, apperror.ErrQuantityTooLarge
	}

	categoryID, err := uc.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	unique, err := uc.repo.IsSKUUnique(ctx, sku, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperror.ErrSKUConflict
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:               sku,
		Name:              name,
		CategoryID:        categoryID,
		Quantity:          input.Quantity,
		InitialQuantity:   input.Quantity,
		Price:             input.Price,
		LowStockThreshold: threshold,
		Supplier:          strings.TrimSpace(input.Supplier),
		Description:       input.Description,
		CreatedBy:         optional(input.UserID),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	uc.syncToElastic(ctx, p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	f := *filters
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize > dto.MaxPageSize {
		f.PageSize = dto.MaxPageSize
	}

	// Quantity is not indexed, so low-stock listings always go to the database.
	if f.SearchQuery != "" && !f.LowStock && uc.es != nil {
		items, total, err := uc.searchElastic(ctx, &f)
		if err == nil {
			return items, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	items, total, err := uc.repo.FindAll(ctx, &f)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, total, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, *model.StockHistory, error) {
	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, nil, err
	}

	sku := model.NormalizeSKU(input.SKU)
	name := strings.TrimSpace(input.Name)
	switch {
	case sku == "":
		return nil, nil, apperror.ErrSKURequired
	case name == "":
		return nil, nil, apperror.ErrNameRequired
	case input.Price.IsNegative():
		return nil, nil, apperror.ErrInvalidPrice
	case !hasCents(input.Price):
		return nil, nil, apperror.ErrPricePrecision
	case input.LowStockThreshold != nil && *input.LowStockThreshold < 0:
		return nil, nil, apperror.ErrInvalidThreshold
	case input.Quantity != nil && *input.Quantity < 0:
		return nil, nil, apperror.ErrInvalidQuantity
	case input.Quantity != nil && *input.Quantity > model.MaxQuantity:
		return nil, nil, apperror.ErrQuantityTooLarge
	case input.Quantity != nil && input.UserID == "":
		return nil, nil, apperror.ErrMissingActor
	}

	categoryID, err := uc.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, nil, err
	}

	if sku != p.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, sku, p.ID)
		if err != nil {
			return nil, nil, err
		}
		if !unique {
			return nil, nil, apperror.ErrSKUConflict
		}
	}

	p.SKU = sku
	p.Name = name
	p.CategoryID = categoryID
	p.Price = input.Price
	if input.LowStockThreshold != nil {
		p.LowStockThreshold = *input.LowStockThreshold
	}
	p.Supplier = strings.TrimSpace(input.Supplier)
	p.Description = input.Description
	p.UpdatedAt = time.Now().UTC()

	if input.Quantity == nil {
		if err := uc.repo.UpdateMetadata(ctx, p); err != nil {
			return nil, nil, err
		}
		uc.syncToElastic(ctx, p)
		return p, nil, nil
	}

	// Quantity changes go through the ledger so they are recorded, in the
	// same write as the metadata.
	updated, entry, err := uc.stock.EditProduct(ctx, p, *input.Quantity, input.UserID, NoteProductEdit)
	if err != nil {
		return nil, nil, err
	}
	uc.syncToElastic(ctx, updated)
	return updated, entry, nil
}

// hasCents reports whether price fits the two decimal places the schema stores.
func hasCents(price decimal.Decimal) bool {
	return price.Equal(price.Round(2))
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("product deleted", zap.String("product_id", id))

	if uc.es != nil {
		ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
		defer cancel()
		if err := uc.es.Delete(ictx, productIndex, id); err != nil {
			uc.logger.Error("failed to delete product from ES", zap.String("product_id", id), zap.Error(err))
		}
	}
	return nil
}

func (uc *productUseCase) resolveCategory(ctx context.Context, id string) (*string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	if _, err := uc.categories.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()

	uc.indexOnce.Do(func() {
		if err := uc.es.CreateIndex(ictx, productIndex, productMapping); err != nil {
			uc.logger.Error("failed to create product index", zap.Error(err))
		}
	})
	if err := uc.es.Index(ictx, productIndex, p.ID, newProductDocument(p)); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

// searchElastic resolves matching ids from the index and hydrates them from
// the repository so quantities are never stale.
func (uc *productUseCase) searchElastic(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	res, err := uc.es.Search(ctx, productIndex, buildSearchQuery(f))
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	items, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return items, res.Hits.Total.Value, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
