package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NO_DOTENV", "1")
	for _, e := range []string{
		"AGRIPRICE_FORECAST_AI_API_KEY", "OPENAI_API_KEY", "AGRIPRICE_STORE_DSN",
		"AGRIPRICE_STORE_DRIVER", "AGRIPRICE_CACHE_TTL_SEC", "AGRIPRICE_FORECAST_AI_ENABLED",
	} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver: got %q, want %q", cfg.Store.Driver, "sqlite")
	}
	if !strings.HasSuffix(cfg.Store.Path, filepath.Join(".agriprice", "cache.db")) {
		t.Errorf("Store.Path: got %q", cfg.Store.Path)
	}
	if cfg.Cache.TTL() != 24*time.Hour {
		t.Errorf("Cache.TTL: got %v, want 24h", cfg.Cache.TTL())
	}
	if cfg.Source.ReportURL != "https://www.da.gov.ph/price-monitoring/" {
		t.Errorf("Source.ReportURL: got %q", cfg.Source.ReportURL)
	}
	if cfg.Source.Timeout() != 10*time.Second {
		t.Errorf("Source.Timeout: got %v, want 10s", cfg.Source.Timeout())
	}
	if cfg.Source.Region != "National Average" {
		t.Errorf("Source.Region: got %q", cfg.Source.Region)
	}
	if cfg.Forecast.AI.Enabled {
		t.Error("Forecast.AI.Enabled should be false by default")
	}
	if cfg.Forecast.AI.Model != "gpt-4o-mini" {
		t.Errorf("Forecast.AI.Model: got %q", cfg.Forecast.AI.Model)
	}
	if cfg.Monitor.Workers != 4 {
		t.Errorf("Monitor.Workers: got %d, want 4", cfg.Monitor.Workers)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := []byte(`
store:
  driver: memory
cache:
  ttl_sec: 3600
source:
  report_url: http://127.0.0.1:9/report
  feed_url: http://127.0.0.1:9/feed.xml
  timeout_sec: 3
  seed: 42
forecast:
  ai:
    enabled: true
    api_key: sk-file-key-abcdef
    model: gpt-4o
monitor:
  workers: 8
api:
  port: 9090
  cors_origins: ["https://app.example.org"]
logging:
  level: debug
  format: json
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver: got %q", cfg.Store.Driver)
	}
	if cfg.Cache.TTL() != time.Hour {
		t.Errorf("Cache.TTL: got %v", cfg.Cache.TTL())
	}
	if cfg.Source.FeedURL != "http://127.0.0.1:9/feed.xml" {
		t.Errorf("Source.FeedURL: got %q", cfg.Source.FeedURL)
	}
	if cfg.Source.Seed != 42 {
		t.Errorf("Source.Seed: got %d", cfg.Source.Seed)
	}
	if !cfg.Forecast.AI.Enabled || cfg.Forecast.AI.APIKey != "sk-file-key-abcdef" {
		t.Errorf("Forecast.AI: got %+v", cfg.Forecast.AI)
	}
	if cfg.Monitor.Workers != 8 {
		t.Errorf("Monitor.Workers: got %d", cfg.Monitor.Workers)
	}
	if cfg.API.Port != 9090 || cfg.API.CORSOrigins[0] != "https://app.example.org" {
		t.Errorf("API: got %+v", cfg.API)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q", cfg.Logging.Format)
	}
	// Unset values keep their defaults.
	if cfg.Source.Region != "National Average" {
		t.Errorf("Source.Region: got %q", cfg.Source.Region)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	isolateEnv(t)
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("LoadFromFile() should fail for missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AGRIPRICE_STORE_DRIVER", "memory")
	t.Setenv("AGRIPRICE_CACHE_TTL_SEC", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver: got %q, want memory", cfg.Store.Driver)
	}
	if cfg.Cache.TTLSec != 60 {
		t.Errorf("Cache.TTLSec: got %d, want 60", cfg.Cache.TTLSec)
	}
}

func TestOverrideFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-generic-openai-123456")
	t.Setenv("AGRIPRICE_STORE_DSN", "postgres://u:p@localhost/agri")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.Forecast.AI.APIKey != "sk-generic-openai-123456" {
		t.Errorf("APIKey: got %q", cfg.Forecast.AI.APIKey)
	}
	if cfg.Store.DSN != "postgres://u:p@localhost/agri" {
		t.Errorf("DSN: got %q", cfg.Store.DSN)
	}

	t.Setenv("AGRIPRICE_FORECAST_AI_API_KEY", "sk-specific-key-abcdef")
	overrideFromEnv(cfg)
	if cfg.Forecast.AI.APIKey != "sk-specific-key-abcdef" {
		t.Errorf("prefixed key should win, got %q", cfg.Forecast.AI.APIKey)
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Driver: "memory"},
			Cache:  CacheConfig{TTLSec: 60},
			Source: SourceConfig{TimeoutSec: 10},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() on valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }},
		{"zero ttl", func(c *Config) { c.Cache.TTLSec = 0 }},
		{"zero timeout", func(c *Config) { c.Source.TimeoutSec = 0 }},
		{"ai without key", func(c *Config) { c.Forecast.AI.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

// ── Keys ──

func TestMaskKey(t *testing.T) {
	if got := maskKey("short"); got != "***" {
		t.Errorf("maskKey(short) = %q, want ***", got)
	}
	if got := maskKey("sk-1234567890abc"); got != "sk-...abc" {
		t.Errorf("maskKey(long) = %q, want sk-...abc", got)
	}
}

func TestCheckAPIKeys(t *testing.T) {
	isolateEnv(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 2 {
		t.Fatalf("CheckAPIKeys() returned %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet || s.Source != KeySourceNone {
			t.Errorf("%s: got %+v, want unset", s.Name, s)
		}
	}

	cfg := &Config{}
	cfg.Forecast.AI.APIKey = "sk-config-key-xyz789"
	s := CheckAPIKeys(cfg)[0]
	if !s.IsSet || s.Source != KeySourceConfig || s.Masked != "sk-...789" {
		t.Errorf("config key status: %+v", s)
	}

	t.Setenv("OPENAI_API_KEY", "sk-config-key-xyz789")
	s = CheckAPIKeys(cfg)[0]
	if s.Source != KeySourceEnv {
		t.Errorf("env key source: got %q, want env", s.Source)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("AGRIPRICE_DOTENV_PROBE=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NO_DOTENV", "")
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("AGRIPRICE_DOTENV_PROBE", "")
	os.Unsetenv("AGRIPRICE_DOTENV_PROBE")

	LoadDotenv()
	if got := os.Getenv("AGRIPRICE_DOTENV_PROBE"); got != "from-file" {
		t.Errorf("AGRIPRICE_DOTENV_PROBE = %q, want from-file", got)
	}

	t.Setenv("AGRIPRICE_DOTENV_PROBE", "from-process")
	LoadDotenv()
	if got := os.Getenv("AGRIPRICE_DOTENV_PROBE"); got != "from-process" {
		t.Errorf("process env should win, got %q", got)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() returned empty string")
	}
}
