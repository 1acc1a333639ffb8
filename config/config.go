/*
Package config loads the portal configuration from the environment.

PURPOSE:
  One explicitly constructed Config object is built at process start
  and passed into each component. No package carries ambient global
  configuration.

SOURCES (lowest to highest precedence):
  1. Built-in defaults
  2. Environment variables with the FORECAST_ prefix
     (FORECAST_JWT_SECRET -> jwt_secret, FORECAST_PORT -> port, ...)

KEYS:
  port              HTTP port                     (default 8080)
  db_path           users SQLite path             (default portal.db)
  warehouse_path    DuckDB file, :memory: allowed (default warehouse.db)
  dataset           warehouse schema              (default main)
  forecast_table    load destination              (default forecast_final)
  jwt_secret        HS256 signing secret          (required to serve)
  jwt_expiry        token lifetime                (default 168h)
  gemini_api_key    Gemini API backend key
  gemini_project    Vertex AI project
  gemini_location   Vertex AI region
  gemini_model      model name                    (default gemini-2.0-flash)
  admin_user        /token credential             (default admin)
  admin_password    /token credential
  static_token      opaque token issued by /token
  allowed_origins   comma-separated CORS origins
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix of all portal environment variables.
const envPrefix = "FORECAST_"

// Config is the process-wide configuration, constructed once in main
// and passed into each component.
type Config struct {
	Port          int    `koanf:"port"`
	DBPath        string `koanf:"db_path"`
	WarehousePath string `koanf:"warehouse_path"`
	Dataset       string `koanf:"dataset"`
	ForecastTable string `koanf:"forecast_table"`

	JWTSecret string        `koanf:"jwt_secret"`
	JWTExpiry time.Duration `koanf:"jwt_expiry"`

	GeminiAPIKey   string `koanf:"gemini_api_key"`
	GeminiProject  string `koanf:"gemini_project"`
	GeminiLocation string `koanf:"gemini_location"`
	GeminiModel    string `koanf:"gemini_model"`

	AdminUser     string `koanf:"admin_user"`
	AdminPassword string `koanf:"admin_password"`
	StaticToken   string `koanf:"static_token"`

	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Load builds the Config from defaults and FORECAST_-prefixed
// environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"port":            8080,
		"db_path":         "portal.db",
		"warehouse_path":  "warehouse.db",
		"dataset":         "main",
		"forecast_table":  "forecast_final",
		"jwt_expiry":      "168h",
		"gemini_model":    "gemini-2.0-flash",
		"admin_user":      "admin",
		"allowed_origins": "http://localhost:5173,http://localhost:5174",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Environment (FORECAST_JWT_SECRET -> jwt_secret)
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// allowed_origins arrives as one comma-separated string from env.
	if len(cfg.AllowedOrigins) == 1 && strings.Contains(cfg.AllowedOrigins[0], ",") {
		parts := strings.Split(cfg.AllowedOrigins[0], ",")
		cfg.AllowedOrigins = cfg.AllowedOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("FORECAST_JWT_SECRET is required")
	}
	if c.ForecastTable == "" {
		return fmt.Errorf("forecast table name must not be empty")
	}
	return nil
}

// GeminiEnabled reports whether a generative backend is configured.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != "" || (c.GeminiProject != "" && c.GeminiLocation != "")
}
