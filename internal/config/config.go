// Package config handles configuration loading for AgriPrice.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AGRIPRICE_STORE_DRIVER.
const EnvPrefix = "AGRIPRICE"

// Config represents the complete application configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"  yaml:"catalog"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache"`
	Source   SourceConfig   `mapstructure:"source"   yaml:"source"`
	Forecast ForecastConfig `mapstructure:"forecast" yaml:"forecast"`
	Monitor  MonitorConfig  `mapstructure:"monitor"  yaml:"monitor"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// CatalogConfig points at an optional YAML catalog overriding the built-in one.
type CatalogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// StoreConfig selects the durable cache backend.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"    yaml:"driver"` // "sqlite", "memory", "postgres"
	Path     string `mapstructure:"path"      yaml:"path"`   // sqlite file
	DSN      string `mapstructure:"dsn"       yaml:"dsn"`    // postgres
	Table    string `mapstructure:"table"     yaml:"table"`
	MaxConns int    `mapstructure:"max_conns" yaml:"max_conns"`
}

// CacheConfig holds cache validity settings.
type CacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec" yaml:"ttl_sec"`
}

// TTL returns the cache validity window.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// SourceConfig configures the upstream price report.
type SourceConfig struct {
	ReportURL    string  `mapstructure:"report_url"     yaml:"report_url"`
	FeedURL      string  `mapstructure:"feed_url"       yaml:"feed_url"` // optional RSS feed announcing new reports
	TimeoutSec   int     `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
	UserAgent    string  `mapstructure:"user_agent"     yaml:"user_agent"`
	Region       string  `mapstructure:"region"         yaml:"region"`
	RatePerMin   int     `mapstructure:"rate_per_min"   yaml:"rate_per_min"`
	Seed         int64   `mapstructure:"seed"           yaml:"seed"` // 0 = random
	LiveDisabled bool    `mapstructure:"live_disabled"  yaml:"live_disabled"`
	MinRows      int     `mapstructure:"min_rows"       yaml:"min_rows"`
	MaxBodyMB    float64 `mapstructure:"max_body_mb"    yaml:"max_body_mb"`
}

// Timeout returns the upstream request timeout.
func (s SourceConfig) Timeout() time.Duration { return time.Duration(s.TimeoutSec) * time.Second }

// ForecastConfig holds forecasting settings.
type ForecastConfig struct {
	AI AIConfig `mapstructure:"ai" yaml:"ai"`
}

// AIConfig configures the optional model-backed forecaster.
type AIConfig struct {
	Enabled    bool   `mapstructure:"enabled"     yaml:"enabled"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"`
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	Model      string `mapstructure:"model"       yaml:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MonitorConfig holds orchestrator settings.
type MonitorConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"  yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "error", "severe"
	Format string `mapstructure:"format" yaml:"format"` // "plain" or "json"
	Path   string `mapstructure:"path"   yaml:"path"`   // log dir when mode is file
	Mode   string `mapstructure:"mode"   yaml:"mode"`   // "console" or "file"
}

// Load reads the configuration from file and environment variables.
// A .env file is loaded first (see LoadDotenv).
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.agriprice/config.yaml (home directory)
//  3. /etc/agriprice/config.yaml (system)
//
// Environment variables override config file values.
// Format: AGRIPRICE_<SECTION>_<KEY>, e.g., AGRIPRICE_STORE_DRIVER
func Load() (*Config, error) {
	LoadDotenv()
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".agriprice"))
	v.AddConfigPath("/etc/agriprice")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	LoadDotenv()
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for sqlite")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Cache.TTLSec <= 0 {
		return fmt.Errorf("config: cache.ttl_sec must be positive")
	}
	if c.Source.TimeoutSec <= 0 {
		return fmt.Errorf("config: source.timeout_sec must be positive")
	}
	if c.Forecast.AI.Enabled && c.Forecast.AI.APIKey == "" {
		return fmt.Errorf("config: forecast.ai.api_key is required when forecast.ai.enabled")
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.file", "")

	// Store defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", filepath.Join(homeDir(), ".agriprice", "cache.db"))
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "agriprice_kv")
	v.SetDefault("store.max_conns", 2)

	v.SetDefault("cache.ttl_sec", 24*60*60) // 24 hours

	// Source defaults
	v.SetDefault("source.report_url", "https://www.da.gov.ph/price-monitoring/")
	v.SetDefault("source.feed_url", "")
	v.SetDefault("source.timeout_sec", 10)
	v.SetDefault("source.user_agent", "Mozilla/5.0 (compatible; AgriPrice/1.0)")
	v.SetDefault("source.region", "National Average")
	v.SetDefault("source.rate_per_min", 6)
	v.SetDefault("source.seed", 0)
	v.SetDefault("source.live_disabled", false)
	v.SetDefault("source.min_rows", 1)
	v.SetDefault("source.max_body_mb", 8)

	// Forecast defaults
	v.SetDefault("forecast.ai.enabled", false)
	v.SetDefault("forecast.ai.api_key", "")
	v.SetDefault("forecast.ai.base_url", "")
	v.SetDefault("forecast.ai.model", "gpt-4o-mini")
	v.SetDefault("forecast.ai.timeout_sec", 20)

	v.SetDefault("monitor.workers", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "plain")
	v.SetDefault("logging.mode", "console")
	v.SetDefault("logging.path", "logs")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("AGRIPRICE_FORECAST_AI_API_KEY"); key != "" {
		cfg.Forecast.AI.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Forecast.AI.APIKey == "" {
		cfg.Forecast.AI.APIKey = key
	}
	if dsn := os.Getenv("AGRIPRICE_STORE_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
