package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/auth"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/response"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	uc stock.UseCase
}

func NewStockHandler(uc stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/stock")
	{
		api.POST("/:id/movements", h.ApplyMovement)
		api.GET("/:id/reconcile", h.Reconcile)
		api.GET("/history", h.QueryHistory)
	}
}

type movementRequest struct {
	Type     string `json:"type" binding:"required"`
	Quantity int64  `json:"quantity"`
	Note     string `json:"note"`
}

type movementResponse struct {
	Product *model.Product      `json:"product"`
	Entry   *model.StockHistory `json:"entry"`
}

func (h *StockHandler) ApplyMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInvalidInput, err))
		return
	}

	p, entry, err := h.uc.ApplyMovement(c.Request.Context(), &dto.MovementInput{
		ProductID: c.Param("id"),
		Type:      model.MovementType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Magnitude: req.Quantity,
		Note:      req.Note,
		ActorID:   auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, movementResponse{Product: p, Entry: entry})
}

func (h *StockHandler) QueryHistory(c *gin.Context) {
	filters, err := parseHistoryFilters(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.uc.QueryHistory(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, page.Entries, &response.Pagination{
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		Pages:    page.Pages,
	})
}

func (h *StockHandler) Reconcile(c *gin.Context) {
	rec, err := h.uc.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rec)
}

func parseHistoryFilters(c *gin.Context) (*dto.HistoryFilters, error) {
	f := &dto.HistoryFilters{
		ProductID: c.Query("product_id"),
		Type:      model.MovementType(strings.ToUpper(c.Query("type"))),
	}

	var err error
	if f.Page, err = queryInt(c, "page"); err != nil {
		return nil, err
	}
	sizeKey := "page_size"
	if c.Query(sizeKey) == "" {
		sizeKey = "limit"
	}
	if f.PageSize, err = queryInt(c, sizeKey); err != nil {
		return nil, err
	}
	if f.From, err = queryTime(c, "from", false); err != nil {
		return nil, err
	}
	if f.To, err = queryTime(c, "to", true); err != nil {
		return nil, err
	}
	return f, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Wrap(apperror.ErrInvalidInput, err)
	}
	return n, nil
}

// queryTime accepts RFC 3339 or a bare date. A bare "to" date covers the
// whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
