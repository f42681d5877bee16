package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("expected defaults, got error: %v", err)
	}
	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.Addr() != "0.0.0.0:5000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.AllowedOrigin != "http://127.0.0.1:5500" {
		t.Fatalf("unexpected origin %q", cfg.AllowedOrigin)
	}
	if cfg.CacheEnabled() || cfg.HistoryEnabled() || cfg.GRPCAddr() != "" {
		t.Fatalf("expected optional stores disabled, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	body := "port: 8081\nallowed_origin: https://app.example\ncache_ttl: 30s\nredis_addr: redis:6379\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, envMap(map[string]string{"PORT": "9090", "GRPC_PORT": "9091"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("expected env to override port, got %d", cfg.Port)
	}
	if cfg.AllowedOrigin != "https://app.example" {
		t.Fatalf("expected origin from file, got %q", cfg.AllowedOrigin)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("expected ttl from file, got %s", cfg.CacheTTL)
	}
	if cfg.GRPCAddr() != "0.0.0.0:9091" {
		t.Fatalf("unexpected grpc addr %q", cfg.GRPCAddr())
	}
}

func TestLoadSearchesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "metricmuse.yml"), []byte("port: 7000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7000 {
		t.Fatalf("expected port from default file, got %d", cfg.Port)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), envMap(nil)); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("", envMap(map[string]string{"PORT": "abc", "CACHE_TTL": "soon"}))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"PORT", "CACHE_TTL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got %v", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":           func(c *Config) { c.Port = 0 },
		"grpc clash":     func(c *Config) { c.GRPCPort = c.Port },
		"body limit":     func(c *Config) { c.MaxRequestBytes = 0 },
		"origin":         func(c *Config) { c.AllowedOrigin = "" },
		"history no jwt": func(c *Config) { c.DatabaseDSN = "host=db" },
		"cache ttl": func(c *Config) {
			c.RedisAddr = "redis:6379"
			c.CacheTTL = 0
		},
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
