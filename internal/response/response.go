// Package response writes the JSON envelope shared by every HTTP endpoint:
// {"success": true, "data": ...} or {"success": false, "error": {...}}.
package response

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/pkg/i18n"
	"github.com/gin-gonic/gin"
)

type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

func NewPagination(page, pageSize, total int) *Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &Pagination{Page: page, PageSize: pageSize, Total: total, Pages: pages}
}

var translator atomic.Pointer[i18n.Translator]

// SetTranslator localizes error messages from the request's Accept-Language.
func SetTranslator(t *i18n.Translator) {
	translator.Store(t)
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func SuccessWithPagination(c *gin.Context, data interface{}, p *Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}

// Error maps err to its HTTP status. Errors outside the apperror taxonomy
// are reported as storage failures without leaking their text.
func Error(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.ErrStorage
	}
	ErrorWithStatus(c, StatusOf(appErr.Kind), string(appErr.Kind), localize(c, appErr.MessageID, appErr.Message))
}

func ErrorWithStatus(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindInvalidMovement, apperror.KindInvalidInput:
		return http.StatusBadRequest
	case apperror.KindInsufficientStock:
		return http.StatusUnprocessableEntity
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusServiceUnavailable
}

func localize(c *gin.Context, messageID, fallback string) string {
	t := translator.Load()
	if t == nil || messageID == "" {
		return fallback
	}
	return t.Translate(messageID, fallback, c.GetHeader("Accept-Language"))
}
