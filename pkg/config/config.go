// Package config loads gateway configuration from defaults, an optional
// YAML file, and GTEX_LINK_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/gtex-link/gtex-link/pkg/client"
	"github.com/gtex-link/gtex-link/pkg/logging"
	"github.com/gtex-link/gtex-link/pkg/service"
)

const envPrefix = "GTEX_LINK"

// APIConfig configures the upstream GTEx Portal client.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	BurstSize  int           `mapstructure:"burst_size"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// CacheConfig configures the per-operation response caches.
type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the gateway HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is the root gateway configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// Load reads configuration from defaults, the optional config file at
// path, and GTEX_LINK_* environment variables. An empty path skips the
// file layer.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	// Env overrides arrive as strings; decode them weakly onto the typed fields.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weak); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers the GTEx Portal defaults.
func setDefaults(v *viper.Viper) {
	defaults := client.DefaultConfig()

	v.SetDefault("api.base_url", defaults.BaseURL)
	v.SetDefault("api.timeout", defaults.Timeout)
	v.SetDefault("api.rate_limit", defaults.RateLimit)
	v.SetDefault("api.burst_size", defaults.BurstSize)
	v.SetDefault("api.max_retries", defaults.MaxRetries)
	v.SetDefault("api.retry_delay", defaults.RetryDelay)
	v.SetDefault("api.user_agent", defaults.UserAgent)

	cacheDefaults := service.DefaultCacheConfig()
	v.SetDefault("cache.size", cacheDefaults.Size)
	v.SetDefault("cache.ttl", cacheDefaults.TTL)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api.rate_limit must be positive, got %v", c.API.RateLimit)
	}
	if c.API.BurstSize < 1 {
		return fmt.Errorf("api.burst_size must be at least 1, got %d", c.API.BurstSize)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative, got %d", c.API.MaxRetries)
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be at least 1, got %d", c.Cache.Size)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	return nil
}

// ClientConfig converts the API section into a client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:    c.API.BaseURL,
		Timeout:    c.API.Timeout,
		RateLimit:  c.API.RateLimit,
		BurstSize:  c.API.BurstSize,
		MaxRetries: c.API.MaxRetries,
		RetryDelay: c.API.RetryDelay,
		UserAgent:  c.API.UserAgent,
	}
}

// ServiceCacheConfig converts the cache section into service cache budgets.
func (c *Config) ServiceCacheConfig() service.CacheConfig {
	return service.CacheConfig{
		Size: c.Cache.Size,
		TTL:  c.Cache.TTL,
	}
}

// LoggingConfig converts the log section into logging setup options.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Log.Level),
		Pretty: c.Log.Pretty,
	}
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
