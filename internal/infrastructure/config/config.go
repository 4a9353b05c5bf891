// Package config loads bridge configuration from TOML and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Odoo      OdooConfig
	Checkout  CheckoutConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name string
	Env  string // development, production
	Port string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	RequestTimeout   time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// OdooConfig holds the remote Odoo connection settings.
type OdooConfig struct {
	BaseURL            string
	Database           string
	Username           string
	Password           string
	TimeoutSeconds     int
	SKUField           string
	DefaultPartnerID   int64
	DefaultPricelistID int64 // 0 delegates to Odoo's own pricelist selection
}

// CheckoutConfig holds dispatcher policy settings.
type CheckoutConfig struct {
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
	UseRedisStore      bool
}

// RedisConfig holds Redis connection settings for the shared
// idempotency store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TelemetryConfig holds OpenTelemetry tracing configuration.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// Load reads configuration with the following priority, highest first:
//  1. environment variables with SCANCHECKOUT_ prefix
//     (e.g. SCANCHECKOUT_ODOO_PASSWORD)
//  2. config.toml
//  3. built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	v.SetEnvPrefix("SCANCHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Odoo: OdooConfig{
			BaseURL:            v.GetString("odoo.base_url"),
			Database:           v.GetString("odoo.database"),
			Username:           v.GetString("odoo.username"),
			Password:           v.GetString("odoo.password"),
			TimeoutSeconds:     v.GetInt("odoo.timeout_seconds"),
			SKUField:           v.GetString("odoo.sku_field"),
			DefaultPartnerID:   v.GetInt64("odoo.default_partner_id"),
			DefaultPricelistID: v.GetInt64("odoo.default_pricelist_id"),
		},
		Checkout: CheckoutConfig{
			IdempotencyEnabled: v.GetBool("checkout.idempotency_enabled"),
			IdempotencyTTL:     v.GetDuration("checkout.idempotency_ttl"),
			UseRedisStore:      v.GetBool("checkout.use_redis_store"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scancheckout-bridge")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.request_timeout", "30s")
	v.SetDefault("http.max_body_size", 1<<20)

	v.SetDefault("odoo.timeout_seconds", 10)
	v.SetDefault("odoo.sku_field", "default_code")
	v.SetDefault("odoo.default_partner_id", 1)

	v.SetDefault("checkout.idempotency_enabled", true)
	v.SetDefault("checkout.idempotency_ttl", "24h")
	v.SetDefault("checkout.use_redis_store", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "scancheckout-bridge")
	v.SetDefault("telemetry.insecure", true)
}

// Validate checks settings that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Odoo.BaseURL == "" {
		return errors.New("config: odoo.base_url is required")
	}
	if c.Odoo.Database == "" {
		return errors.New("config: odoo.database is required")
	}
	if c.Odoo.Username == "" {
		return errors.New("config: odoo.username is required")
	}
	if c.Odoo.Password == "" {
		return errors.New("config: odoo.password is required")
	}
	if c.Telemetry.Enabled && c.Telemetry.CollectorEndpoint == "" {
		return errors.New("config: telemetry.collector_endpoint is required when telemetry is enabled")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("config: telemetry.sampling_ratio %f out of range [0,1]", c.Telemetry.SamplingRatio)
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
