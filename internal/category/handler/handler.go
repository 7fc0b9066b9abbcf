package handler

import (
	"strconv"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/auth"
	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	"github.com/fekuna/omnipos-stock-ledger/internal/category/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/response"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/categories")
	{
		api.GET("", h.ListCategories)
		api.POST("", h.CreateCategory)
		api.GET("/:id", h.GetCategory)
		api.PUT("/:id", h.UpdateCategory)
		api.DELETE("/:id", h.DeleteCategory)
	}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInvalidInput, err))
		return
	}

	cat, err := h.uc.CreateCategory(c.Request.Context(), &dto.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		UserID:      auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		h.fail(c, "failed to create category", err)
		return
	}
	response.Created(c, cat)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	cat, err := h.uc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to get category", err)
		return
	}
	response.Success(c, cat)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	filters := &dto.CategoryFilters{}
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
		filters.PageSize = n
	}

	items, total, err := h.uc.ListCategories(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "failed to list categories", err)
		return
	}
	if filters.PageSize == 0 {
		response.Success(c, items)
		return
	}
	response.SuccessWithPagination(c, items, response.NewPagination(max(filters.Page, 1), filters.PageSize, total))
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInvalidInput, err))
		return
	}

	cat, err := h.uc.UpdateCategory(c.Request.Context(), &dto.UpdateCategoryInput{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		h.fail(c, "failed to update category", err)
		return
	}
	response.Success(c, cat)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.uc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "failed to delete category", err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func (h *CategoryHandler) fail(c *gin.Context, msg string, err error) {
	if apperror.IsKind(err, apperror.KindStorageFailure) || apperror.KindOf(err) == "" {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}
