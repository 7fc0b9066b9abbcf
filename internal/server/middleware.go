package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/auth"
	"github.com/fekuna/omnipos-stock-ledger/internal/response"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger logs one line per request once the handler chain has run.
func RequestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(HeaderRequestID, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("HTTP request completed", fields...)
			return
		}
		log.Info("HTTP request completed", fields...)
	}
}

func Recovery(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("HTTP request panicked",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
				)
				response.ErrorWithStatus(c, http.StatusInternalServerError, "internal_error", "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// Principal copies the X-User-ID header onto the request context. Requests
// that change state are rejected without one.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(auth.HeaderUserID))
		if userID != "" {
			c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), userID))
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			response.Error(c, apperror.ErrUnauthenticated)
			c.Abort()
		}
	}
}

// UnaryLogger is the gRPC counterpart of RequestLogger.
func UnaryLogger(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := auth.GetUserID(ctx); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if err != nil {
			log.Warn("gRPC request failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("gRPC request completed", fields...)
		}
		return resp, err
	}
}
