package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-stock-ledger/internal/auth"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/usecase"
	"github.com/fekuna/omnipos-stock-ledger/internal/store/memory"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Pagination *struct {
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.New()
	require.NoError(t, db.Products().Create(context.Background(), &model.Product{
		BaseModel: model.BaseModel{ID: "p-1"}, SKU: "SKU-1", Name: "Widget",
	}))
	uc := usecase.NewStockUseCase(db.Stock(), lock.NewLocal(), nil, logger.NewNop(), usecase.Options{})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader(auth.HeaderUserID); id != "" {
			c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), id))
		}
		c.Next()
	})
	NewStockHandler(uc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderUserID, "u-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestMovementEndpoints(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/v1/stock/p-1/movements", `{"type":"in","quantity":15}`)
	require.Equal(t, http.StatusCreated, code)
	var moved movementResponse
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.Equal(t, int64(15), moved.Product.Quantity)
	assert.Equal(t, "u-1", moved.Entry.PerformedBy)

	code, env = do(t, r, http.MethodPost, "/api/v1/stock/p-1/movements", `{"type":"OUT","quantity":20}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/stock/p-1/movements", `{"type":"MOVE","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_MOVEMENT", env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/stock/nope/movements", `{"type":"IN","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/stock/p-1/movements", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodGet, "/api/v1/stock/history?product_id=p-1&page_size=10", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, env.Pagination.Total)

	_, _ = do(t, r, http.MethodPost, "/api/v1/stock/p-1/movements", `{"type":"ADJUSTMENT","quantity":15}`)
	code, env = do(t, r, http.MethodGet, "/api/v1/stock/history?limit=1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.Pages)

	code, _ = do(t, r, http.MethodGet, "/api/v1/stock/history?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodGet, "/api/v1/stock/p-1/reconcile", "")
	assert.Equal(t, http.StatusOK, code)
	var rec struct {
		Consistent bool  `json:"consistent"`
		Actual     int64 `json:"actual"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(15), rec.Actual)
}

func TestMovementWithoutPrincipal(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/p-1/movements", strings.NewReader(`{"type":"IN","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
