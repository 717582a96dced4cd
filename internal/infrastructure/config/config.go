package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Nutrition   NutritionConfig `mapstructure:"nutrition"`
	Gemini      GeminiConfig    `mapstructure:"gemini"`
	Scaling     ScalingConfig   `mapstructure:"scaling"`
	Meal        MealConfig      `mapstructure:"meal"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Redis       RedisConfig     `mapstructure:"redis"`
	AppLog      AppLogConfig    `mapstructure:"applog"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// 營養查詢失敗時的處理策略
const (
	FailurePolicyFallback  = "fallback"
	FailurePolicyPropagate = "propagate"
)

// NutritionConfig 營養資料來源設定
type NutritionConfig struct {
	UseRealAPI     bool            `mapstructure:"use_real_api"`
	DemoBaseURL    string          `mapstructure:"demo_base_url"`
	BaseURL        string          `mapstructure:"base_url"`
	Endpoint       string          `mapstructure:"endpoint"`
	AppID          string          `mapstructure:"app_id"`
	AppKey         string          `mapstructure:"app_key"`
	AppIDHeader    string          `mapstructure:"app_id_header"`
	AppKeyHeader   string          `mapstructure:"app_key_header"`
	BearerToken    string          `mapstructure:"bearer_token"`
	Timeout        time.Duration   `mapstructure:"timeout"`
	FailurePolicy  string          `mapstructure:"failure_policy"`
	MaxConcurrency int             `mapstructure:"max_concurrency"`
	DemoFallback   FallbackProfile `mapstructure:"demo_fallback"`
	LiveFallback   FallbackProfile `mapstructure:"live_fallback"`
}

// FallbackProfile 合成估算的卡路里基準
type FallbackProfile struct {
	Base int `mapstructure:"base"`
	Span int `mapstructure:"span"`
}

// GeminiConfig Gemini 生成模型設定
type GeminiConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	APIKeyEnv       string        `mapstructure:"api_key_env"`
	AccessToken     string        `mapstructure:"access_token"`
	ProjectID       string        `mapstructure:"project_id"`
	Location        string        `mapstructure:"location"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	SystemPrompt    string        `mapstructure:"system_prompt"`
	CacheResponses  bool          `mapstructure:"cache_responses"`
}

// ResolveAPIKey 優先使用設定值，其次讀取 APIKeyEnv 指定的環境變數
func (g GeminiConfig) ResolveAPIKey() string {
	if key := strings.TrimSpace(g.APIKey); key != "" {
		return key
	}
	if g.APIKeyEnv != "" {
		return strings.TrimSpace(os.Getenv(g.APIKeyEnv))
	}
	return ""
}

// ResolveProjectID 優先使用設定值，其次讀取 GOOGLE_CLOUD_PROJECT
func (g GeminiConfig) ResolveProjectID() string {
	if id := strings.TrimSpace(g.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
}

// Bounds 縮放倍率上下限
type Bounds struct {
	Low  float64 `mapstructure:"low"`
	High float64 `mapstructure:"high"`
}

// Validate 檢查上下限是否合理
func (b Bounds) Validate() error {
	if b.Low <= 0 {
		return fmt.Errorf("lower bound must be positive, got %v", b.Low)
	}
	if b.Low > b.High {
		return fmt.Errorf("lower bound %v exceeds upper bound %v", b.Low, b.High)
	}
	return nil
}

// ScalingConfig 各模式的縮放上下限
type ScalingConfig struct {
	Simple Bounds `mapstructure:"simple"`
	Chef   Bounds `mapstructure:"chef"`
}

// MealConfig 餐點組合設定
type MealConfig struct {
	DefaultMode       string `mapstructure:"default_mode"`
	SimpleComplements bool   `mapstructure:"simple_complements"`
	RandomSeed        int64  `mapstructure:"random_seed"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AppLogConfig 應用事件日誌設定
type AppLogConfig struct {
	Backend    string `mapstructure:"backend"`
	Key        string `mapstructure:"key"`
	MaxEntries int64  `mapstructure:"max_entries"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只依賴環境變數與預設值
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := LoadConfigFrom(v)
	if err != nil {
		return nil, err
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"nutrition_real_api:", cfg.Nutrition.UseRealAPI,
		"gemini_enabled:", cfg.Gemini.Enabled,
		"gemini_api_key:", maskAPIKey(cfg.Gemini.ResolveAPIKey()),
		"gemini_model:", cfg.Gemini.Model,
	)
	return cfg, nil
}

// LoadConfigFrom 從指定的 viper 實例解析設定
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"nutrition.use_real_api":   "NUTRITION_USE_REAL_API",
		"nutrition.base_url":       "NUTRITIONIX_BASE_URL",
		"nutrition.app_id":         "NUTRITIONIX_APP_ID",
		"nutrition.app_key":        "NUTRITIONIX_APP_KEY",
		"nutrition.bearer_token":   "NUTRITION_BEARER_TOKEN",
		"nutrition.failure_policy": "NUTRITION_FAILURE_POLICY",
		"gemini.enabled":           "GEMINI_ENABLED",
		"gemini.api_key":           "GEMINI_API_KEY",
		"gemini.access_token":      "GEMINI_ACCESS_TOKEN",
		"gemini.model":             "GEMINI_MODEL",
		"gemini.location":          "GEMINI_LOCATION",
		"cache.enabled":            "CACHE_ENABLED",
		"redis.enabled":            "REDIS_ENABLED",
		"redis.addr":               "REDIS_ADDR",
		"redis.password":           "REDIS_PASSWORD",
		"rate_limit.enabled":       "RATE_LIMIT_ENABLED",
		"rate_limit.requests":      "RATE_LIMIT_REQUESTS",
		"rate_limit.window":        "RATE_LIMIT_WINDOW",
		"dedup_window":             "DEDUP_WINDOW",
		"log_level":                "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "smartchef")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 營養資料設定
	v.SetDefault("nutrition.use_real_api", false)
	v.SetDefault("nutrition.demo_base_url", "https://dummyjson.com")
	v.SetDefault("nutrition.base_url", "https://trackapi.nutritionix.com/v2")
	v.SetDefault("nutrition.endpoint", "natural/nutrients")
	v.SetDefault("nutrition.app_id_header", "x-app-id")
	v.SetDefault("nutrition.app_key_header", "x-app-key")
	v.SetDefault("nutrition.timeout", "10s")
	v.SetDefault("nutrition.failure_policy", FailurePolicyFallback)
	v.SetDefault("nutrition.max_concurrency", 4)
	v.SetDefault("nutrition.demo_fallback.base", 120)
	v.SetDefault("nutrition.demo_fallback.span", 150)
	v.SetDefault("nutrition.live_fallback.base", 90)
	v.SetDefault("nutrition.live_fallback.span", 120)

	// Gemini 設定
	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.backend", "studio")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.api_key_env", "GOOGLE_API_KEY")
	v.SetDefault("gemini.location", "us-central1")
	v.SetDefault("gemini.model", "gemini-2.5-pro")
	v.SetDefault("gemini.timeout", "15s")
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.max_output_tokens", 4096)
	v.SetDefault("gemini.system_prompt", "You are ChefAI, a culinary assistant that designs balanced meals and always answers with strict JSON.")
	v.SetDefault("gemini.cache_responses", true)

	// 縮放設定
	v.SetDefault("scaling.simple.low", 0.5)
	v.SetDefault("scaling.simple.high", 1.5)
	v.SetDefault("scaling.chef.low", 0.6)
	v.SetDefault("scaling.chef.high", 1.4)

	// 餐點設定
	v.SetDefault("meal.default_mode", "simple")
	v.SetDefault("meal.simple_complements", false)
	v.SetDefault("meal.random_seed", 0)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Redis 設定
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 應用事件日誌
	v.SetDefault("applog.backend", "zap")
	v.SetDefault("applog.key", "smartchef:applog")
	v.SetDefault("applog.max_entries", 1000)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Nutrition.FailurePolicy {
	case FailurePolicyFallback, FailurePolicyPropagate:
	default:
		return fmt.Errorf("unknown nutrition failure policy %q", config.Nutrition.FailurePolicy)
	}
	if config.Nutrition.MaxConcurrency <= 0 {
		return fmt.Errorf("invalid nutrition max concurrency")
	}
	for name, p := range map[string]FallbackProfile{"demo": config.Nutrition.DemoFallback, "live": config.Nutrition.LiveFallback} {
		if p.Base < 0 || p.Span <= 0 {
			return fmt.Errorf("invalid %s fallback profile", name)
		}
	}

	if err := config.Scaling.Simple.Validate(); err != nil {
		return fmt.Errorf("scaling.simple: %w", err)
	}
	if err := config.Scaling.Chef.Validate(); err != nil {
		return fmt.Errorf("scaling.chef: %w", err)
	}

	switch config.Gemini.Backend {
	case "studio", "vertex":
	default:
		return fmt.Errorf("unknown gemini backend %q", config.Gemini.Backend)
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
		if config.Cache.Backend == "redis" && !config.Redis.Enabled {
			return fmt.Errorf("redis cache backend requires redis.enabled")
		}
	}

	if config.AppLog.Backend == "redis" && !config.Redis.Enabled {
		return fmt.Errorf("redis applog backend requires redis.enabled")
	}

	return nil
}
