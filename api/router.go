package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/logger"
	"pos_sales/internal/sales"
)

type RouterConfig struct {
	SalesService *sales.Service
	Verifier     *auth.Verifier
	Logger       *zap.Logger
	CORSOrigins  []string
	// TracingService enables otelgin spans under this service name when set.
	TracingService string
}

// InitRoutes registers the sales endpoints on the given Gin engine. Every
// /sales route requires a bearer token; /ping does not.
func InitRoutes(e *gin.Engine, cfg RouterConfig) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e.Use(gin.Recovery())
	e.Use(logger.GinMiddleware(log))
	if cfg.TracingService != "" {
		e.Use(otelgin.Middleware(cfg.TracingService))
	}
	if len(cfg.CORSOrigins) > 0 {
		e.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	salesHandler := NewSalesHandler(cfg.SalesService, log)
	authMW := newAuthMiddleware(cfg.Verifier, log)

	protected := e.Group("/sales")
	protected.Use(authMW.RequireAuth())
	protected.POST("", salesHandler.handleCreateSale)
	protected.GET("", salesHandler.handleListSales)
	protected.GET("/:id", salesHandler.handleGetSale)
	protected.PUT("/:id", salesHandler.handleUpdateSale)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
