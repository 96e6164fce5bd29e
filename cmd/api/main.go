package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantry-engine/internal/api"
	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/infrastructure/idempotency"
	"pantry-engine/internal/infrastructure/inventoryapi"
	"pantry-engine/internal/infrastructure/metrics"
	"pantry-engine/internal/pkg/common"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	// 數量以 JSON 數字輸出
	decimal.MarshalJSONWithoutQuotes = true

	common.LogInfo("載入設定",
		zap.String("inventory_api", cfg.InventoryAPI.BaseURL),
		zap.String("inventory_token", config.MaskToken(cfg.InventoryAPI.Token)),
		zap.String("idempotency_backend", cfg.Idempotency.Backend),
		zap.String("match_policy", cfg.Matcher.Policy),
	)

	// 單位換算表
	table, err := unit.LoadTable(cfg.Conversion.TablePath)
	if err != nil {
		common.LogFatal("Failed to load conversion table", zap.Error(err), zap.String("path", cfg.Conversion.TablePath))
	}
	converter, err := unit.NewConverter(table)
	if err != nil {
		common.LogFatal("Failed to initialize converter", zap.Error(err))
	}

	// 冪等儲存
	store, err := idempotency.NewStore(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer store.Close()

	// 指標
	var collector *metrics.Metrics
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Converter: converter,
		Store:     store,
		Inventory: inventoryapi.NewClient(cfg.InventoryAPI).WithMetrics(collector),
		Metrics:   collector,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
