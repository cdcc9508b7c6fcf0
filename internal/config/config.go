package config

import (
	"time"
)

// Config represents the complete application configuration.
// Values come from defaults, an optional YAML config file, and
// WARROOM_-prefixed environment variables, in increasing precedence.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Crisis    CrisisConfig    `mapstructure:"crisis"`

	Mentionlytics ProviderConfig `mapstructure:"mentionlytics"`
	Meta          ProviderConfig `mapstructure:"meta"`
	GoogleAds     ProviderConfig `mapstructure:"google_ads"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig controls the upstream response cache.
type CacheConfig struct {
	// Backend is memory or store.
	Backend         string        `mapstructure:"backend"`
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	FallbackTTL     time.Duration `mapstructure:"fallback_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig controls outbound and inbound throttling.
type RateLimitConfig struct {
	// Backend is memory or store. The store backend shares state between
	// instances but does not make check-and-update atomic across them.
	Backend       string        `mapstructure:"backend"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Client        PolicyConfig  `mapstructure:"client"`
	HTTP          PolicyConfig  `mapstructure:"http"`
}

// PolicyConfig is one throttling policy.
type PolicyConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
}

// ProviderConfig describes one upstream API.
type ProviderConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// CustomerID is only used by Google Ads.
	CustomerID string `mapstructure:"customer_id"`
}

// CrisisConfig tunes the crisis detection sweep.
type CrisisConfig struct {
	Keywords     []string      `mapstructure:"keywords"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
