package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"smartchef/internal/api/handlers/health"
	mealHandler "smartchef/internal/api/handlers/meal"
	"smartchef/internal/api/middleware"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/infrastructure/metrics"
	"smartchef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svcs *Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", mealHandler.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(requestTimeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, serviceStatus(cfg, svcs), cacheStats(svcs), readinessChecks(svcs))
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")
	{
		meals := mealHandler.NewHandler(svcs.Meals, cfg.Meal.DefaultMode)

		mealGroup := api.Group("/meals")
		{
			mealGroup.POST("/generate",
				middleware.Deduplication(middleware.NewDeduplicator(cfg.DedupWindow), mealHandler.UserIDHeader),
				meals.HandleGenerate,
			)
			mealGroup.GET("/modes/:mode", meals.HandleModeInfo)
		}

		if svcs.Events != nil {
			api.GET("/events", recentEvents(svcs))
		}
	}

	router.NoRoute(func(c *gin.Context) {
		resp := common.ErrNotFound.Response()
		resp.Details = c.Request.URL.Path
		c.JSON(common.ErrNotFound.Status, resp)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return router
}

// requestTimeout 為每個請求設定逾時；處理程序未回應且已逾時時回傳 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "Request timeout",
				Details: timeout.String(),
			})
		}
	}
}

func serviceStatus(cfg *config.Config, svcs *Services) map[string]string {
	status := map[string]string{
		"nutrition_source": svcs.Resolver.SourceName(),
		"ai":               "disabled",
	}
	switch {
	case svcs.Ideas.Ready():
		status["ai"] = cfg.Gemini.Backend + ":" + cfg.Gemini.Model
	case svcs.Ideas.Enabled():
		status["ai"] = "misconfigured"
	}
	if svcs.Redis != nil {
		status["redis"] = cfg.Redis.Addr
	}
	return status
}

func cacheStats(svcs *Services) func() map[string]interface{} {
	if svcs.Cache == nil {
		return nil
	}
	return svcs.Cache.GetStats
}

func readinessChecks(svcs *Services) map[string]health.Check {
	checks := map[string]health.Check{}
	if svcs.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return svcs.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// recentEvents 讀取 Redis 中最新的應用事件
func recentEvents(svcs *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
		if err != nil || limit <= 0 || limit > 500 {
			resp := common.ErrInvalidRequest.Response()
			resp.Details = "limit must be between 1 and 500"
			c.JSON(common.ErrInvalidRequest.Status, resp)
			return
		}

		entries, err := svcs.Events.Recent(c.Request.Context(), limit)
		if err != nil {
			common.LogError("Failed to read app log", zap.Error(err))
			c.JSON(common.ErrServiceUnavailable.Status, common.ErrServiceUnavailable.Response())
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": entries})
	}
}
