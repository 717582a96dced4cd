package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartchef/internal/api"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"

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
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.Bool("nutrition_real_api", cfg.Nutrition.UseRealAPI),
		zap.String("nutrition_failure_policy", cfg.Nutrition.FailurePolicy),
		zap.Bool("gemini_enabled", cfg.Gemini.Enabled),
		zap.String("gemini_api_key", common.MaskSecret(cfg.Gemini.ResolveAPIKey())),
		zap.String("gemini_model", cfg.Gemini.Model),
	)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	svcs, err := api.NewServices(initCtx, cfg)
	cancelInit()
	if err != nil {
		common.LogFatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			common.LogWarn("Failed to release resources", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.SetupRouter(cfg, svcs),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
