package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pantry-engine/internal/api/handlers/health"
	"pantry-engine/internal/api/handlers/pantry"
	"pantry-engine/internal/api/middleware"
	"pantry-engine/internal/core/cooking"
	"pantry-engine/internal/core/inventory"
	"pantry-engine/internal/core/receipt"
	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/infrastructure/idempotency"
	"pantry-engine/internal/infrastructure/metrics"
	"pantry-engine/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryBackend 外部庫存 API 的讀寫操作
type InventoryBackend interface {
	pantry.InventoryClient
	cooking.InventoryGateway
}

// Dependencies 路由需要的外部資源
type Dependencies struct {
	Converter *unit.Converter
	Store     idempotency.Store
	Inventory InventoryBackend
	// Metrics 為 nil 時不註冊 /metrics
	Metrics *metrics.Metrics
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if deps.Converter == nil {
		return nil, errors.New("unit converter is required")
	}

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID
	if deps.Metrics != nil {
		router.Use(deps.Metrics.HTTPMiddleware())
	}

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if cfg.DedupWindow > 0 {
		router.Use(middleware.Deduplication(cfg.DedupWindow))
	}

	// 初始化服務
	matcher, err := inventory.NewMatcher(deps.Converter, inventory.MatcherConfig{
		Policy:              inventory.Policy(cfg.Matcher.Policy),
		SimilarityThreshold: cfg.Matcher.SimilarityThreshold,
	})
	if err != nil {
		common.LogError("Failed to initialize matcher", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize matcher: %w", err)
	}

	extractor, err := receipt.NewExtractor(receipt.Options{
		LineThreshold: cfg.Receipt.LineThreshold,
		BrandTokens:   cfg.Receipt.BrandTokens,
	})
	if err != nil {
		common.LogError("Failed to initialize receipt extractor", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize receipt extractor: %w", err)
	}

	var (
		gateway cooking.InventoryGateway
		client  pantry.InventoryClient
	)
	if deps.Inventory != nil {
		gateway = deps.Inventory
		client = deps.Inventory
	}
	cookingSvc := cooking.NewService(inventory.NewPlanner(matcher), deps.Store, gateway)
	handler := pantry.NewHandler(deps.Converter, matcher, extractor, cookingSvc, client, deps.Metrics, cfg.App.Debug)

	timeout := cfg.Server.RequestTimeout

	common.LogInfo("Services initialized",
		zap.String("match_policy", string(matcher.Policy())),
		zap.Bool("idempotency_enabled", deps.Store != nil),
		zap.Bool("inventory_api_enabled", deps.Inventory != nil),
		zap.Duration("timeout", timeout),
	)

	// 全局中間件：設置超時和共用資源
	router.Use(func(c *gin.Context) {
		if timeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}

		c.Set("config", cfg)
		if deps.Store != nil {
			c.Set("idempotency_store", deps.Store)
		}

		c.Next()

		// 處理程序尚未回應時才補上超時錯誤
		if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(common.ErrGatewayTimeout.Status, common.ErrGatewayTimeout.Response(false))
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)
	if deps.Metrics != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}

	// API 路由組
	api := router.Group("/api/v1")
	{
		ingredientGroup := api.Group("/ingredients")
		{
			ingredientGroup.POST("/parse", handler.HandleParse)
			ingredientGroup.POST("/strip", handler.HandleStrip)
		}

		api.POST("/units/convert", handler.HandleConvert)
		api.POST("/inventory/classify", handler.HandleClassify)

		cookGroup := api.Group("/cook")
		{
			cookGroup.POST("/plan", handler.HandlePlan)
			cookGroup.POST("/commit", handler.HandleCommit)
		}

		receiptGroup := api.Group("/receipts")
		{
			receiptGroup.POST("/extract", handler.HandleExtract)
			receiptGroup.POST("/import", handler.HandleImport)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
