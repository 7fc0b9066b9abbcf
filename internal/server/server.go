package server

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const APIPrefix = "/api/v1"

type RouteRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// NewRouter mounts every registrar under /api/v1 behind the principal check.
func NewRouter(log logger.ZapLogger, registrars ...RouteRegistrar) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(log), RequestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group(APIPrefix, Principal())
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return router
}

// NewGRPCServer serves the standard health service and reflection. The
// returned health server lets main flip the status during shutdown.
func NewGRPCServer(log logger.ZapLogger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(log)))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv, hs
}
