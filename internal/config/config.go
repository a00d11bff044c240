package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config mirrors config/config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds the inbound HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

// UpstreamConfig holds the market-data API settings. The base URL is the only
// host the gateway will ever contact; callers select resources by relative
// path only.
type UpstreamConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
	Proxy   string `mapstructure:"proxy"`
}

// CORSConfig holds the browser-origin allowlist for the UI.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RequestTimeout returns the upstream request timeout, defaulting to 10s when
// unset or nonsensical.
func (u *UpstreamConfig) RequestTimeout() time.Duration {
	if u.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.Timeout) * time.Second
}

// LoadConfig reads config/config.yaml; values from .env / the environment
// override deploy-sensitive fields.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	overrideFromEnv(&cfg)

	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv applies environment overrides (priority: env > yaml).
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("UPSTREAM_PROXY"); v != "" {
		cfg.Upstream.Proxy = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode: %s (must be debug, release or test)", c.Server.Mode)
	}
	return nil
}
