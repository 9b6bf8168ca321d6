package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"sierre/internal/api/handlers"
	"sierre/internal/api/middleware"
	"sierre/internal/config"
	"sierre/internal/events"
	"sierre/internal/logger"
	"sierre/internal/services/analytics"
	"sierre/internal/services/kpi"
	"sierre/internal/services/shopify"
	syncsvc "sierre/internal/services/sync"
	"sierre/internal/store"
)

// Server is the HTTP API.
type Server struct {
	router *gin.Engine
	config *config.Config
}

func NewServer(cfg *config.Config, st *store.Store, rdb *redis.Client, publisher *events.Publisher, log *logger.Logger) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gateway := shopify.NewGateway(log)
	oauth := shopify.NewOAuthService(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.ShopifyScopes, cfg.ShopifyRedirectURL)
	engine := syncsvc.NewEngine(gateway, st, log)
	aggregator := kpi.NewAggregator(st, rdb, log)
	builder := analytics.NewBuilder(st)

	shopifyHandler := handlers.NewShopifyHandler(oauth, gateway, st, rdb, cfg, log)
	syncHandler := handlers.NewSyncHandler(engine, publisher, log)
	webhookHandler := handlers.NewWebhookHandler(st, cfg.ShopifyAPISecret, publisher, log)
	kpiHandler := handlers.NewKpiHandler(aggregator, log)
	insightsHandler := handlers.NewInsightsHandler(builder, log)

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "sierre"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/connect", shopifyHandler.Connect)
	router.GET("/callback", shopifyHandler.Callback)
	router.POST("/disconnect", shopifyHandler.Disconnect)
	router.GET("/status", shopifyHandler.Status)

	router.POST("/sync", syncHandler.Sync)
	router.POST("/backfill", syncHandler.Backfill)

	router.POST("/webhooks", webhookHandler.Handle)

	router.GET("/kpis/summary", kpiHandler.Summary)
	router.GET("/kpis/sales-daily", kpiHandler.SalesDaily)
	router.GET("/kpis/top-products", kpiHandler.TopProducts)
	router.POST("/kpis/aggregate-daily", kpiHandler.AggregateDaily)

	router.GET("/insights", insightsHandler.Get)

	return &Server{router: router, config: cfg}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run() error {
	return s.router.Run(s.config.APIHost + ":" + s.config.APIPort)
}
