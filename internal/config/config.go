// Package config provides configuration management for bunqledger
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Store backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// DefaultAppID keys stored credentials when no application id is configured
const DefaultAppID = "bunqledger"

// Config holds all configuration for bunqledger
type Config struct {
	API     APIConfig     `toml:"api"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Sandbox SandboxConfig `toml:"sandbox"`
}

// APIConfig holds bunq API client configuration
type APIConfig struct {
	URL               string   `toml:"url"`
	Key               string   `toml:"key"`
	UserAgent         string   `toml:"user_agent"`
	Timeout           Duration `toml:"timeout"`
	PageSize          int      `toml:"page_size"`
	DeviceDescription string   `toml:"device_description"`
	PermittedIPs      []string `toml:"permitted_ips"`
}

// StoreConfig selects where credentials are persisted
type StoreConfig struct {
	Backend  string `toml:"backend"`
	AppID    string `toml:"app_id"`
	Path     string `toml:"path"`
	DSN      string `toml:"dsn"`
	RedisURL string `toml:"redis_url"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// MetricsConfig holds prometheus exporter configuration
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// SandboxConfig holds configuration of the local fake API
type SandboxConfig struct {
	Addr               string   `toml:"addr"`
	APIKey             string   `toml:"api_key"`
	JWTSecret          string   `toml:"jwt_secret"`
	SessionTTL         Duration `toml:"session_ttl"`
	UserID             int64    `toml:"user_id"`
	DisplayName        string   `toml:"display_name"`
	Accounts           int      `toml:"accounts"`
	PaymentsPerAccount int      `toml:"payments_per_account"`
	PageSize           int      `toml:"page_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:               "https://api.bunq.com",
			UserAgent:         "bunqledger/1.0",
			Timeout:           Duration{30 * time.Second},
			DeviceDescription: "bunqledger",
			PermittedIPs:      []string{"*"},
		},
		Store: StoreConfig{
			Backend: BackendFile,
			AppID:   DefaultAppID,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Sandbox: SandboxConfig{
			Addr:               ":8090",
			APIKey:             "sandbox-api-key",
			JWTSecret:          "bunqledger-sandbox-secret",
			SessionTTL:         Duration{time.Hour},
			UserID:             42,
			DisplayName:        "Sandbox User",
			Accounts:           2,
			PaymentsPerAccount: 25,
			PageSize:           10,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path and the environment, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.API.URL = getEnv("BUNQ_API_URL", c.API.URL)
	c.API.Key = getEnv("BUNQ_API_KEY", c.API.Key)
	c.Store.AppID = getEnv("BUNQ_APP_ID", c.Store.AppID)
	c.Store.Backend = getEnv("BUNQ_STORE_BACKEND", c.Store.Backend)
	c.Store.Path = getEnv("BUNQ_STORE_PATH", c.Store.Path)
	c.Store.DSN = getEnv("BUNQ_DB_DSN", c.Store.DSN)
	c.Store.RedisURL = getEnv("BUNQ_REDIS_URL", c.Store.RedisURL)
	c.Log.Level = getEnv("BUNQ_LOG_LEVEL", c.Log.Level)
	c.Sandbox.Addr = getEnv("BUNQ_SANDBOX_ADDR", c.Sandbox.Addr)

	if addr := os.Getenv("BUNQ_METRICS_ADDR"); addr != "" {
		c.Metrics.Addr = addr
		c.Metrics.Enabled = true
	}

	if v := os.Getenv("BUNQ_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BUNQ_PAGE_SIZE %q: %w", v, err)
		}
		c.API.PageSize = n
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if c.API.URL == "" {
		errs = append(errs, errors.New("api url is required"))
	}
	if c.API.PageSize < 0 {
		errs = append(errs, fmt.Errorf("page size must not be negative, got %d", c.API.PageSize))
	}
	if c.Store.AppID == "" {
		errs = append(errs, errors.New("store app id is required"))
	}

	switch c.Store.Backend {
	case BackendFile, BackendMemory:
	case BackendPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("postgres store requires a dsn"))
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("redis store requires a url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
