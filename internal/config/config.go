// Package config loads MetricMuse settings from an optional YAML file and
// the environment. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFiles are searched, in order, when no config path is given.
var DefaultFiles = []string{"metricmuse.yaml", "metricmuse.yml"}

// Config is the full runtime configuration.
type Config struct {
	Port            int           `yaml:"port"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	GRPCPort        int           `yaml:"grpc_port"`

	RedisAddr string        `yaml:"redis_addr"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	DatabaseDSN string `yaml:"database_dsn"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTAudience string `yaml:"jwt_audience"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:            5000,
		AllowedOrigin:   "http://127.0.0.1:5500",
		MaxRequestBytes: 1 << 20,
		LogLevel:        "info",
		ShutdownTimeout: 15 * time.Second,
		CacheTTL:        10 * time.Minute,
	}
}

// Addr is the HTTP listen address on all interfaces.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// GRPCAddr is the gRPC health listen address, empty when disabled.
func (c *Config) GRPCAddr() string {
	if c.GRPCPort <= 0 {
		return ""
	}
	return fmt.Sprintf("0.0.0.0:%d", c.GRPCPort)
}

// HistoryEnabled reports whether analyses are persisted.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseDSN != ""
}

// CacheEnabled reports whether reports are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads path (or the first DefaultFiles entry that exists), then
// applies environment overrides through getenv and validates the result.
// A missing default file is not an error; a missing explicit path is.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	data, source, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", source, err)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, fmt.Errorf("read config file: %w", err)
		}
		return data, path, nil
	}
	for _, name := range DefaultFiles {
		data, err := os.ReadFile(name)
		if err == nil {
			return data, name, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, name, fmt.Errorf("read config file: %w", err)
		}
	}
	return nil, "", nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	setInt := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setInt("PORT", &cfg.Port)
	setInt("GRPC_PORT", &cfg.GRPCPort)
	setString("ALLOWED_ORIGIN", &cfg.AllowedOrigin)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	setDuration("CACHE_TTL", &cfg.CacheTTL)
	setString("DATABASE_DSN", &cfg.DatabaseDSN)
	setString("JWT_SECRET", &cfg.JWTSecret)
	setString("JWT_AUDIENCE", &cfg.JWTAudience)

	if v := strings.TrimSpace(getenv("MAX_REQUEST_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_REQUEST_BYTES: %w", err))
		} else {
			cfg.MaxRequestBytes = n
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("grpc_port %d out of range", c.GRPCPort))
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.Port {
		errs = append(errs, errors.New("grpc_port must differ from port"))
	}
	if c.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("max_request_bytes must be positive"))
	}
	if c.AllowedOrigin == "" {
		errs = append(errs, errors.New("allowed_origin is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.CacheEnabled() && c.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache_ttl must be positive when redis_addr is set"))
	}
	if c.HistoryEnabled() && c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required when database_dsn is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
