// Package config centralizes every environment-driven setting the
// service needs, loaded once at startup and validated fail-fast.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the fully-loaded, validated configuration for both cmd/server
// and cmd/worker.
type Config struct {
	App     AppConfig
	Source  SourceConfig
	Catalog CatalogConfig
	Webhook WebhookConfig
	Mapper  MapperConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Archive ArchiveConfig
	Admin   AdminConfig
	JWT     JWTConfig
}

// AppConfig carries process-wide settings.
type AppConfig struct {
	Environment string
	Port        string
}

// SourceConfig is the source store's base URL and credentials.
type SourceConfig struct {
	BaseURL string
	Key     string
	Secret  string
}

// CatalogConfig is the ad catalog's base URL, catalog id, and bearer token.
type CatalogConfig struct {
	BaseURL   string
	CatalogID string
	Token     string
}

// WebhookConfig is the event processor's shared HMAC secret and the
// hostname it requires the source-url header to match.
type WebhookConfig struct {
	Secret         string
	SourceHostname string
}

// MapperConfig carries the deployment constants the mapper needs.
type MapperConfig struct {
	Brand          string
	CurrencySuffix string
	ImageBaseURL   string
}

// CacheConfig is the embedded store's file path.
type CacheConfig struct {
	Path string
}

// RedisConfig backs the asynq event-processing queue and the scheduled
// feed-refresh cron.
type RedisConfig struct {
	Addr        string
	RefreshCron string
}

// ArchiveConfig is the optional MinIO-compatible feed archival sink.
// A blank Endpoint/Bucket disables archival.
type ArchiveConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether enough configuration is present to archive
// feeds to MinIO; the feed generator treats this as purely additive.
func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != "" && a.Bucket != ""
}

// AdminConfig is the single-account operator login.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("CATALOG_SYNC_ENV", "development"),
			Port:        getEnv("CATALOG_SYNC_PORT", "8080"),
		},
		Source: SourceConfig{
			BaseURL: getEnv("CATALOG_SYNC_SOURCE_BASE_URL", ""),
			Key:     getEnv("CATALOG_SYNC_SOURCE_KEY", ""),
			Secret:  getEnv("CATALOG_SYNC_SOURCE_SECRET", ""),
		},
		Catalog: CatalogConfig{
			BaseURL:   getEnv("CATALOG_SYNC_CATALOG_BASE_URL", ""),
			CatalogID: getEnv("CATALOG_SYNC_CATALOG_ID", ""),
			Token:     getEnv("CATALOG_SYNC_CATALOG_TOKEN", ""),
		},
		Webhook: WebhookConfig{
			Secret:         getEnv("CATALOG_SYNC_WEBHOOK_SECRET", ""),
			SourceHostname: getEnv("CATALOG_SYNC_SOURCE_HOSTNAME", ""),
		},
		Mapper: MapperConfig{
			Brand:          getEnv("CATALOG_SYNC_BRAND", "Acme"),
			CurrencySuffix: getEnv("CATALOG_SYNC_CURRENCY_SUFFIX", "KM"),
			ImageBaseURL:   getEnv("CATALOG_SYNC_IMAGE_BASE_URL", ""),
		},
		Cache: CacheConfig{
			Path: getEnv("CATALOG_SYNC_CACHE_PATH", "data/cache.db"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("CATALOG_SYNC_REDIS_ADDR", "localhost:6379"),
			RefreshCron: getEnv("CATALOG_SYNC_REFRESH_CRON", "0 */6 * * *"),
		},
		Archive: ArchiveConfig{
			Endpoint:  getEnv("CATALOG_SYNC_ARCHIVE_ENDPOINT", ""),
			Bucket:    getEnv("CATALOG_SYNC_ARCHIVE_BUCKET", ""),
			AccessKey: getEnv("CATALOG_SYNC_ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("CATALOG_SYNC_ARCHIVE_SECRET_KEY", ""),
			UseSSL:    getEnvBool("CATALOG_SYNC_ARCHIVE_USE_SSL", false),
		},
		Admin: AdminConfig{
			Username:     getEnv("CATALOG_SYNC_ADMIN_USER", "admin"),
			PasswordHash: getEnv("CATALOG_SYNC_ADMIN_PASSWORD_HASH", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("CATALOG_SYNC_JWT_SECRET", "change-this-secret"),
			Expiration: getEnvDuration("CATALOG_SYNC_JWT_EXPIRATION", 12*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on missing required configuration.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" || c.Source.Key == "" || c.Source.Secret == "" {
		return fmt.Errorf("config: source store base URL/key/secret are required")
	}
	if c.Catalog.BaseURL == "" || c.Catalog.CatalogID == "" || c.Catalog.Token == "" {
		return fmt.Errorf("config: ad-catalog base URL/id/token are required")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("config: webhook secret is required")
	}
	if c.JWT.Secret == "change-this-secret" && c.App.Environment == "production" {
		return fmt.Errorf("config: CATALOG_SYNC_JWT_SECRET must be set in production")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
