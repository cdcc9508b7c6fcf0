// Package config provides centralized configuration management for WarRoom.
// Defaults are registered on a viper instance, overlaid by an optional config
// file and WARROOM_* environment variables, then decoded into Config.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// AppName names config and data directories.
	AppName = "warroom"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "WARROOM"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// providerEnvAliases lets deployments keep the unprefixed secret names.
var providerEnvAliases = map[string][]string{
	"mentionlytics.token": {"MENTIONLYTICS_TOKEN", "MENTIONLYTICS_API_TOKEN"},
	"meta.token":          {"META_ACCESS_TOKEN"},
	"google_ads.token":    {"GOOGLE_ADS_DEVELOPER_TOKEN"},
}

// ConfigureEnv wires the WARROOM_ prefix and secret aliases onto v.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range providerEnvAliases {
		names := append([]string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		_ = v.BindEnv(names...)
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.fallback_ttl", "2m")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.sweep_interval", "15m")
	v.SetDefault("rate_limit.client.enabled", true)
	v.SetDefault("rate_limit.client.max_attempts", 100)
	v.SetDefault("rate_limit.client.window", "1m")
	v.SetDefault("rate_limit.http.enabled", true)
	v.SetDefault("rate_limit.http.max_attempts", 100)
	v.SetDefault("rate_limit.http.window", "1m")

	setProviderDefaults(v, "mentionlytics", "https://api.mentionlytics.com/v1/")
	setProviderDefaults(v, "meta", "https://graph.facebook.com/v18.0/")
	setProviderDefaults(v, "google_ads", "https://googleads.googleapis.com/v15/")
	v.SetDefault("google_ads.customer_id", "")

	v.SetDefault("crisis.keywords", []string{"scandal", "boycott", "lawsuit", "controversy", "fraud", "scam"})
	v.SetDefault("crisis.scan_interval", "0s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

func setProviderDefaults(v *viper.Viper, name, baseURL string) {
	v.SetDefault(name+".base_url", baseURL)
	v.SetDefault(name+".token", "")
	v.SetDefault(name+".timeout", "30s")
	v.SetDefault(name+".retries", 3)
	v.SetDefault(name+".retry_delay", "1s")
}

// Load decodes the merged viper state into a Config and makes it current.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings that cannot be served.
func (c *Config) Validate() error {
	for name, backend := range map[string]string{"cache.backend": c.Cache.Backend, "rate_limit.backend": c.RateLimit.Backend} {
		switch strings.ToLower(strings.TrimSpace(backend)) {
		case "", "memory", "store":
		default:
			return fmt.Errorf("invalid %s %q (expected memory or store)", name, backend)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir(AppName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := DefaultDataDir()
	if strings.TrimSpace(dataDir) == "" {
		return "./" + AppName + ".db"
	}
	return filepath.Join(dataDir, AppName+".db")
}
