package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	InventoryAPI InventoryAPIConfig `mapstructure:"inventory_api"`
	Idempotency  IdempotencyConfig  `mapstructure:"idempotency"`
	Redis        RedisConfig        `mapstructure:"redis"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Conversion   ConversionConfig   `mapstructure:"conversion"`
	Matcher      MatcherConfig      `mapstructure:"matcher"`
	Receipt      ReceiptConfig      `mapstructure:"receipt"`
	DedupWindow  time.Duration      `mapstructure:"dedup_window"`
	LogLevel     string             `mapstructure:"log_level"`
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

// InventoryAPIConfig 外部庫存 API 設定
type InventoryAPIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// IdempotencyConfig 烹飪提交的冪等鍵儲存設定
type IdempotencyConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxSize         int           `mapstructure:"max_size"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig Prometheus 指標設定
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ConversionConfig 單位換算表設定，TablePath 為空時使用內建表
type ConversionConfig struct {
	TablePath string `mapstructure:"table_path"`
}

// MatcherConfig 食材名稱比對設定
type MatcherConfig struct {
	Policy              string  `mapstructure:"policy"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// ReceiptConfig 收據擷取設定
type ReceiptConfig struct {
	LineThreshold float64  `mapstructure:"line_threshold"`
	BrandTokens   []string `mapstructure:"brand_tokens"`
}

// 冪等儲存後端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數與預設值
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	v.BindEnv("inventory_api.base_url", "APP_INVENTORY_API_BASE_URL", "INVENTORY_API_BASE_URL")
	v.BindEnv("inventory_api.token", "APP_INVENTORY_API_TOKEN", "INVENTORY_API_TOKEN")
	v.BindEnv("redis.addr", "APP_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "APP_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("rate_limit.enabled", "APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.requests", "APP_RATE_LIMIT_REQUESTS", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "APP_RATE_LIMIT_WINDOW", "RATE_LIMIT_WINDOW")
	v.BindEnv("metrics.enabled", "APP_METRICS_ENABLED", "METRICS_ENABLED")
	v.BindEnv("dedup_window", "APP_DEDUP_WINDOW", "DEDUP_WINDOW")
	v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"inventory_api:", config.InventoryAPI.BaseURL,
		"inventory_token:", MaskToken(config.InventoryAPI.Token),
		"idempotency_backend:", config.Idempotency.Backend,
	)

	return &config, nil
}

// MaskToken 遮罩 token，只顯示前後各 4 個字符
func MaskToken(key string) string {
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
	v.SetDefault("app.name", "pantry-engine")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 2<<20) // 2MB

	// 外部庫存 API
	v.SetDefault("inventory_api.base_url", "http://localhost:3000/api")
	v.SetDefault("inventory_api.token", "")
	v.SetDefault("inventory_api.timeout", "10s")
	v.SetDefault("inventory_api.retry_count", 2)

	// 冪等鍵
	v.SetDefault("idempotency.backend", BackendMemory)
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("idempotency.cleanup_interval", "10m")
	v.SetDefault("idempotency.max_size", 10000)

	// Redis
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 指標
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// 換算表、比對與收據
	v.SetDefault("conversion.table_path", "")
	v.SetDefault("matcher.policy", "containment")
	v.SetDefault("matcher.similarity_threshold", 0.75)
	v.SetDefault("receipt.line_threshold", 10.0)
	v.SetDefault("receipt.brand_tokens", []string{})

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body bytes")
	}

	if config.InventoryAPI.BaseURL == "" {
		return fmt.Errorf("inventory api base url is required")
	}
	if config.InventoryAPI.RetryCount < 0 {
		return fmt.Errorf("invalid inventory api retry count")
	}

	// 驗證冪等設定
	switch config.Idempotency.Backend {
	case BackendMemory:
		if config.Idempotency.MaxSize <= 0 {
			return fmt.Errorf("invalid idempotency max size")
		}
		if config.Idempotency.CleanupInterval <= 0 {
			return fmt.Errorf("invalid idempotency cleanup interval")
		}
	case BackendRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis idempotency backend")
		}
	default:
		return fmt.Errorf("unknown idempotency backend %q", config.Idempotency.Backend)
	}
	if config.Idempotency.TTL <= 0 {
		return fmt.Errorf("invalid idempotency ttl")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /")
	}

	switch config.Matcher.Policy {
	case "containment", "similarity":
	default:
		return fmt.Errorf("unknown matcher policy %q", config.Matcher.Policy)
	}
	if config.Matcher.SimilarityThreshold <= 0 || config.Matcher.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid similarity threshold")
	}

	if config.Receipt.LineThreshold <= 0 {
		return fmt.Errorf("invalid receipt line threshold")
	}

	return nil
}
