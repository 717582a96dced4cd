package api

import (
	"context"
	"errors"
	"fmt"

	"smartchef/internal/core/ai/idea"
	"smartchef/internal/core/applog"
	"smartchef/internal/core/cache"
	"smartchef/internal/core/meal"
	"smartchef/internal/core/nutrition"
	"smartchef/internal/core/user"
	"smartchef/internal/infrastructure/config"
	"smartchef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Services 路由所需的已組裝服務
type Services struct {
	Meals    *meal.Service
	Resolver *nutrition.Resolver
	Ideas    *idea.Generator
	Cache    *cache.CacheManager
	Redis    *redis.Client
	Sink     applog.Sink
	// Events Redis 事件日誌，未啟用時為 nil
	Events *applog.RedisSink
}

// NewServices 依設定組裝所有元件
func NewServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		s.Redis = client
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			store = cache.NewRedisStore(s.Redis, "smartchef:cache:", cfg.Cache.TTL)
		default:
			s.Cache = cache.NewManager(cfg.Cache)
			store = s.Cache
		}
	}

	s.Sink = applog.ZapSink{}
	if cfg.AppLog.Backend == "redis" {
		s.Events = applog.NewRedisSink(s.Redis, cfg.AppLog.Key, cfg.AppLog.MaxEntries)
		s.Sink = applog.MultiSink{applog.ZapSink{}, s.Events}
	}

	var users user.Directory = user.NewStaticDirectory(nil)
	if s.Redis != nil {
		users = user.NewRedisDirectory(s.Redis)
	}

	s.Resolver = nutrition.NewResolverFromConfig(cfg.Nutrition, store, s.Sink)
	s.Ideas = idea.NewGenerator(cfg.Gemini, store, s.Sink)

	composer := meal.NewComposer()
	s.Meals = meal.NewService(users, s.Sink,
		meal.NewSimpleGenerator(s.Resolver, cfg.Scaling.Simple, composer, meal.NewRandomSource(cfg.Meal.RandomSeed), cfg.Meal.SimpleComplements),
		meal.NewChefGenerator(s.Resolver, s.Ideas, cfg.Scaling.Chef, composer),
	)

	for _, w := range modeWarnings(cfg, s.Ideas) {
		s.Meals.AddWarning(meal.ModeChef, w)
	}
	if !cfg.Nutrition.UseRealAPI {
		s.Meals.AddWarning(meal.ModeSimple, "Nutrition data comes from the demo source; values are estimates.")
	}

	common.LogInfo("Services initialized",
		zap.String("nutrition_source", s.Resolver.SourceName()),
		zap.Bool("ai_ready", s.Ideas.Ready()),
		zap.Bool("cache_enabled", store != nil),
		zap.Bool("redis_enabled", s.Redis != nil),
	)
	return s, nil
}

// modeWarnings 主廚模式的設定警告
func modeWarnings(cfg *config.Config, ideas *idea.Generator) []string {
	var warnings []string
	if !cfg.Nutrition.UseRealAPI {
		warnings = append(warnings, "Real nutrition API is not configured; using demo nutrition data.")
	}
	switch {
	case !ideas.Enabled():
		warnings = append(warnings, "AI enhancement is disabled; meals use the built-in chef template.")
	case ideas.ConfigError() != nil:
		warnings = append(warnings, fmt.Sprintf("AI enhancement is unavailable: %v", ideas.ConfigError()))
	}
	return warnings
}

// Close 釋放快取與 Redis 連線
func (s *Services) Close() error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	return errors.Join(errs...)
}
