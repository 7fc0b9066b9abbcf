package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/config"
	"github.com/fekuna/omnipos-stock-ledger/internal/category"
	"github.com/fekuna/omnipos-stock-ledger/internal/migration"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/response"
	"github.com/fekuna/omnipos-stock-ledger/internal/server"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/fekuna/omnipos-stock-ledger/internal/store/memory"
	"github.com/fekuna/omnipos-stock-ledger/pkg/broker"
	"github.com/fekuna/omnipos-stock-ledger/pkg/cache"
	"github.com/fekuna/omnipos-stock-ledger/pkg/database/postgres"
	"github.com/fekuna/omnipos-stock-ledger/pkg/i18n"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/fekuna/omnipos-stock-ledger/pkg/search"

	catH "github.com/fekuna/omnipos-stock-ledger/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/category/usecase"

	dashH "github.com/fekuna/omnipos-stock-ledger/internal/dashboard/handler"
	dashUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/dashboard/usecase"

	prodH "github.com/fekuna/omnipos-stock-ledger/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/product/usecase"

	stockH "github.com/fekuna/omnipos-stock-ledger/internal/stock/handler"
	stockListenerPkg "github.com/fekuna/omnipos-stock-ledger/internal/stock/listener"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/publisher"
	stockRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/stock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type repositories struct {
	categories category.Repository
	products   product.Repository
	stock      stock.Repository
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize i18n
	translator, err := i18n.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		log.Fatalf("failed to load locales: %v", err)
	}
	for _, path := range cfg.I18n.ExtraLocales {
		if err := translator.Load(path); err != nil {
			appLogger.Warn("Failed to load locale file", zap.String("path", path), zap.Error(err))
		}
	}
	response.SetTranslator(translator)

	// 4. Initialize Storage
	repos, closeStorage := openStorage(cfg, appLogger)
	defer closeStorage()

	// 5. Initialize Lock
	var locker stock.Locker = lock.NewLocal()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient, cfg.Ledger.LockTTL, cfg.Ledger.LockRetryDelay, appLogger)
		appLogger.Info("Using Redis stock lock", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Initialize Kafka Producer
	var movementPublisher stock.Publisher = publisher.Noop{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.MovementsTopic,
		})
		defer producer.Close()
		movementPublisher = publisher.NewKafkaPublisher(producer)
		appLogger.Info("Publishing stock movements", zap.String("topic", cfg.Kafka.MovementsTopic))
	}

	// 7. Initialize Elasticsearch
	var searchIndex prodUCPkg.SearchIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
		} else {
			searchIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Initialize UseCases
	stockUC := stockUCPkg.NewStockUseCase(repos.stock, locker, movementPublisher, appLogger, stockUCPkg.Options{
		LockWait:       cfg.Ledger.LockWait,
		StorageRetries: cfg.Ledger.StorageRetries,
		RetryBackoff:   cfg.Ledger.RetryBackoff,
	})
	catUC := catUCPkg.NewCategoryUseCase(repos.categories, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(repos.products, repos.categories, stockUC, searchIndex, appLogger)
	dashUC := dashUCPkg.NewDashboardUseCase(repos.products, repos.categories, repos.stock, appLogger, dashUCPkg.Options{
		SeriesDays:  cfg.Dashboard.SeriesDays,
		RecentLimit: cfg.Dashboard.RecentLimit,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start Order Listener
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrdersTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		go stockListenerPkg.NewOrderListener(consumer, stockUC, appLogger).Start(ctx)
	}

	// 10. Initialize Handlers
	router := server.NewRouter(appLogger,
		catH.NewCategoryHandler(catUC, appLogger),
		prodH.NewProductHandler(prodUC, appLogger),
		stockH.NewStockHandler(stockUC),
		dashH.NewDashboardHandler(dashUC, appLogger),
	)
	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 11. Start Servers
	grpcServer, healthServer := server.NewGRPCServer(appLogger)
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func openStorage(cfg *config.Config, appLogger logger.ZapLogger) (repositories, func()) {
	if cfg.Storage.Driver == "memory" {
		db := memory.New()
		appLogger.Warn("Using in-memory storage, data is lost on restart")
		return repositories{
			categories: db.Categories(),
			products:   db.Products(),
			stock:      db.Stock(),
		}, func() {}
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := migration.Migrate(ctx, db); err != nil {
			appLogger.Fatal("Could not apply schema", zap.Error(err))
		}
	}

	return repositories{
		categories: catRepoPkg.NewPGRepository(db),
		products:   prodRepoPkg.NewPGRepository(db),
		stock:      stockRepoPkg.NewPGRepository(db),
	}, func() { db.Close() }
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
