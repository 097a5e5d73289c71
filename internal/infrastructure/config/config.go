// Package config loads router configuration from the environment, with an
// optional YAML file for deployments that prefer checked-in settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all router configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Store     StoreConfig     `yaml:"store"`
	Page      PageConfig      `yaml:"page"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8000" yaml:"port"`
	Host         string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s" yaml:"read_timeout"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s" yaml:"write_timeout"`
}

// LedgerConfig holds remote ledger API configuration.
type LedgerConfig struct {
	BaseURL string        `envconfig:"LEDGER_URL" default:"http://localhost:3000/api" yaml:"base_url"`
	APIKey  string        `envconfig:"LEDGER_API_KEY" yaml:"api_key"`
	Timeout time.Duration `envconfig:"LEDGER_TIMEOUT" default:"30s" yaml:"timeout"`
}

// StoreConfig holds persistent state configuration.
type StoreConfig struct {
	DataDir string `envconfig:"DATA_DIR" default:"/tmp/spendguard" yaml:"data_dir"`
}

// PageConfig holds page-context tuning knobs.
type PageConfig struct {
	// SettleDelay is how long extraction waits for client-rendered content
	// before the first pass.
	SettleDelay time.Duration `envconfig:"PAGE_SETTLE_DELAY" default:"1500ms" yaml:"settle_delay"`
	// URLPollInterval drives SPA URL-change detection, since history
	// mutations are not otherwise observable from page scope.
	URLPollInterval time.Duration `envconfig:"PAGE_URL_POLL" default:"1s" yaml:"url_poll_interval"`
	// CheckTimeout bounds the spending check so a stalled remote call never
	// blocks the overlay's resolution.
	CheckTimeout time.Duration `envconfig:"PAGE_CHECK_TIMEOUT" default:"4s" yaml:"check_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables. If SPENDGUARD_CONFIG
// names a YAML file, it is read first and the environment overrides it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("SPENDGUARD_CONFIG"); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadFile loads configuration from a YAML file over defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Ledger: LedgerConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			DataDir: "/tmp/spendguard",
		},
		Page: PageConfig{
			SettleDelay:     1500 * time.Millisecond,
			URLPollInterval: time.Second,
			CheckTimeout:    4 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
