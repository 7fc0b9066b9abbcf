package handler

import (
	"strconv"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/auth"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/response"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/products")
	{
		api.GET("", h.ListProducts)
		api.POST("", h.CreateProduct)
		api.GET("/:id", h.GetProduct)
		api.PUT("/:id", h.UpdateProduct)
		api.DELETE("/:id", h.DeleteProduct)
	}
}

type productRequest struct {
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	CategoryID        string          `json:"category_id"`
	Quantity          *int64          `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold *int64          `json:"low_stock_threshold"`
	Supplier          string          `json:"supplier"`
	Description       string          `json:"description"`
}

type updateResponse struct {
	Product *model.Product      `json:"product"`
	Entry   *model.StockHistory `json:"entry,omitempty"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInvalidInput, err))
		return
	}

	input := &dto.CreateProductInput{
		SKU:               req.SKU,
		Name:              req.Name,
		CategoryID:        req.CategoryID,
		Price:             req.Price,
		LowStockThreshold: req.LowStockThreshold,
		Supplier:          req.Supplier,
		Description:       req.Description,
		UserID:            auth.GetUserID(c.Request.Context()),
	}
	if req.Quantity != nil {
		input.Quantity = *req.Quantity
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "failed to create product", err)
		return
	}
	response.Created(c, p)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to get product", err)
		return
	}
	response.Success(c, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := &dto.ProductFilters{
		CategoryID:  c.Query("category_id"),
		LowStock:    c.Query("low_stock") == "true",
		SearchQuery: c.Query("search"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        1,
		PageSize:    dto.DefaultPageSize,
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, apperror.ErrInvalidInput)
			return
		}
		filters.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, apperror.ErrInvalidInput)
			return
		}
		filters.PageSize = min(n, dto.MaxPageSize)
	}

	items, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "failed to list products", err)
		return
	}
	response.SuccessWithPagination(c, items, response.NewPagination(filters.Page, filters.PageSize, total))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInvalidInput, err))
		return
	}

	input := &dto.UpdateProductInput{
		ID:                c.Param("id"),
		SKU:               req.SKU,
		Name:              req.Name,
		CategoryID:        req.CategoryID,
		Price:             req.Price,
		LowStockThreshold: req.LowStockThreshold,
		Supplier:          req.Supplier,
		Description:       req.Description,
		Quantity:          req.Quantity,
		UserID:            auth.GetUserID(c.Request.Context()),
	}

	p, entry, err := h.uc.UpdateProduct(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "failed to update product", err)
		return
	}
	response.Success(c, updateResponse{Product: p, Entry: entry})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "failed to delete product", err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func (h *ProductHandler) fail(c *gin.Context, msg string, err error) {
	if apperror.IsKind(err, apperror.KindStorageFailure) || apperror.KindOf(err) == "" {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}
