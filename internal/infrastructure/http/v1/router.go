// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/export"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *pgxpool.Pool

	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService    *auth.Service
	CatalogService *catalog.Service
	LedgerService  *ledger.Service
	ReportsService *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	catalogHandler := handlers.NewCatalogHandler(cfg.CatalogService, cfg.LedgerService)
	reportsHandler := handlers.NewReportsHandler(cfg.ReportsService, export.NewExcelExporter())

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		catalogGroup := protected.Group("/catalog")
		{
			catalogGroup.GET("/categories", catalogHandler.ListCategories)
			catalogGroup.GET("/items", catalogHandler.ListItems)
			catalogGroup.GET("/items/search", catalogHandler.SearchItems)
			catalogGroup.GET("/items/:id", catalogHandler.GetItem)
			catalogGroup.GET("/items/:id/ledger", catalogHandler.GetItemLedger)
		}

		reportsGroup := protected.Group("/reports")
		{
			reportsGroup.POST("/inventory", reportsHandler.Generate)
			reportsGroup.GET("/inventory/:id", reportsHandler.Get)
			reportsGroup.GET("/inventory/:id/excel", reportsHandler.Excel)
			reportsGroup.DELETE("/expired", middleware.RequireAdmin(), reportsHandler.PurgeExpired)
		}
	}

	return router
}
