package config

import (
	"testing"
	"time"
)

func TestLoadRequiresCoreVariables(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "secret",
	})
	if err == nil {
		t.Fatal("expected missing DATABASE_URL to fail")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost/salon",
		"REDIS_URL":        "redis://localhost:6379/0",
		"JWT_SECRET":       "secret",
		"PORT":             "",
		"ACCESS_TOKEN_TTL": "",
		"LOGIN_RATE_LIMIT": "",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddr())
	}
	if cfg.AccessTokenTTL != 12*time.Hour {
		t.Fatalf("expected 12h access TTL, got %s", cfg.AccessTokenTTL)
	}
	if cfg.LoginRateLimit != "10-M" {
		t.Fatalf("unexpected login rate limit %q", cfg.LoginRateLimit)
	}
}

func TestHTTPAddrKeepsExplicitColon(t *testing.T) {
	cfg := &Config{Port: ":9090"}
	if cfg.HTTPAddr() != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.HTTPAddr())
	}
}
