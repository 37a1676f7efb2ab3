package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://gtexportal.org/api/v2/" {
		t.Errorf("Unexpected base URL: %s", cfg.API.BaseURL)
	}
	if cfg.API.RateLimit != 5.0 {
		t.Errorf("Expected rate limit 5.0, got %v", cfg.API.RateLimit)
	}
	if cfg.API.BurstSize != 10 {
		t.Errorf("Expected burst size 10, got %d", cfg.API.BurstSize)
	}
	if cfg.API.MaxRetries != 3 {
		t.Errorf("Expected 3 max retries, got %d", cfg.API.MaxRetries)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Cache.Size != 1000 {
		t.Errorf("Expected cache size 1000, got %d", cfg.Cache.Size)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Expected cache TTL 1h, got %v", cfg.Cache.TTL)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log level info, got %s", cfg.Log.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  rate_limit: 2.5
  max_retries: 1
cache:
  size: 50
  ttl: 5m
server:
  port: 9000
log:
  level: debug
  pretty: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.RateLimit != 2.5 {
		t.Errorf("Expected rate limit 2.5, got %v", cfg.API.RateLimit)
	}
	if cfg.API.MaxRetries != 1 {
		t.Errorf("Expected 1 max retry, got %d", cfg.API.MaxRetries)
	}
	if cfg.Cache.Size != 50 || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("Unexpected log config: %+v", cfg.Log)
	}
	// Untouched fields keep their defaults.
	if cfg.API.BaseURL != "https://gtexportal.org/api/v2/" {
		t.Errorf("File layer clobbered defaults: %s", cfg.API.BaseURL)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GTEX_LINK_API_RATE_LIMIT", "3.0")
	t.Setenv("GTEX_LINK_SERVER_PORT", "8080")
	t.Setenv("GTEX_LINK_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.RateLimit != 3.0 {
		t.Errorf("Expected env rate limit 3.0, got %v", cfg.API.RateLimit)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected env port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env log level warn, got %s", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base URL", func(c *Config) { c.API.BaseURL = "" }},
		{"zero rate limit", func(c *Config) { c.API.RateLimit = 0 }},
		{"negative rate limit", func(c *Config) { c.API.RateLimit = -1 }},
		{"zero burst", func(c *Config) { c.API.BurstSize = 0 }},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }},
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cc := cfg.ClientConfig()
	if cc.BaseURL != cfg.API.BaseURL || cc.RateLimit != cfg.API.RateLimit {
		t.Errorf("Client config mismatch: %+v", cc)
	}

	sc := cfg.ServiceCacheConfig()
	if sc.Size != cfg.Cache.Size || sc.TTL != cfg.Cache.TTL {
		t.Errorf("Service cache config mismatch: %+v", sc)
	}

	if got := cfg.Addr(); got != "0.0.0.0:8000" {
		t.Errorf("Expected addr 0.0.0.0:8000, got %s", got)
	}
}
