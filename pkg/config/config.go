package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Options  OptionsConfig
	Content  ContentConfig
	RBAC     RBACConfig
	Exports  ExportsConfig
	Console  ConsoleConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
	Audience   []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles the redis read-through caches.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// OptionsConfig tunes the picker option endpoints.
type OptionsConfig struct {
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// ContentConfig tunes content list paging.
type ContentConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// RBACConfig controls the role permission cache.
type RBACConfig struct {
	CacheTTL time.Duration
}

// ExportsConfig configures asynchronous content exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	MaxRows           int
}

// ConsoleConfig configures the console client used by consolectl.
type ConsoleConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	PageSize       int
	SearchDebounce time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
		Audience:   splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		DefaultTTL: parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 5*time.Minute),
	}

	cfg.Options = OptionsConfig{
		CacheTTL:        parseDuration(v.GetString("OPTIONS_CACHE_TTL"), time.Minute),
		DefaultPageSize: v.GetInt("OPTIONS_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("OPTIONS_MAX_PAGE_SIZE"),
	}

	cfg.Content = ContentConfig{
		DefaultPageSize: v.GetInt("CONTENT_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("CONTENT_MAX_PAGE_SIZE"),
	}

	cfg.RBAC = RBACConfig{
		CacheTTL: parseDuration(v.GetString("RBAC_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
		MaxRows:           v.GetInt("EXPORTS_MAX_ROWS"),
	}

	cfg.Console = ConsoleConfig{
		BaseURL:        strings.TrimRight(v.GetString("CONSOLE_BASE_URL"), "/"),
		Token:          v.GetString("CONSOLE_TOKEN"),
		Timeout:        parseDuration(v.GetString("CONSOLE_TIMEOUT"), 15*time.Second),
		PageSize:       v.GetInt("CONSOLE_PAGE_SIZE"),
		SearchDebounce: parseDuration(v.GetString("CONSOLE_SEARCH_DEBOUNCE"), 300*time.Millisecond),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "content_console")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1h")
	v.SetDefault("JWT_ISSUER", "content-console")
	v.SetDefault("JWT_AUDIENCE", "content-console")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_DEFAULT_TTL", "5m")
	v.SetDefault("OPTIONS_CACHE_TTL", "1m")
	v.SetDefault("OPTIONS_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("OPTIONS_MAX_PAGE_SIZE", 100)
	v.SetDefault("CONTENT_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("CONTENT_MAX_PAGE_SIZE", 100)
	v.SetDefault("RBAC_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
	v.SetDefault("EXPORTS_MAX_ROWS", 10000)

	v.SetDefault("CONSOLE_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("CONSOLE_TOKEN", "")
	v.SetDefault("CONSOLE_TIMEOUT", "15s")
	v.SetDefault("CONSOLE_PAGE_SIZE", 10)
	v.SetDefault("CONSOLE_SEARCH_DEBOUNCE", "300ms")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
