// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks)
	Pool *postgres.Pool

	// TxManager runs every request in its own transaction
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// Confirmer checks the snapshot confirmation password
	Confirmer stock.Confirmer

	// Audit records snapshot creation
	Audit audit.Logger

	// Version is reported by /health/info
	Version string

	// Development enables gin debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	if cfg.Pool != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	registerStockRoutes(router.Group("/api"), cfg)

	return router
}

// registerStockRoutes wires repositories, services and the stock handler.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	itemRepo := catalog_repo.NewItemRepo(cfg.TxManager)
	names := item.NewResolver(itemRepo)

	stockRepo := register_repo.NewStockRepo(cfg.TxManager)
	stockService := stock.NewService(cfg.TxManager, stockRepo, names, cfg.Confirmer, cfg.Audit)

	handlers.NewStockHandler(baseHandler, stockService).RegisterRoutes(rg)
}
