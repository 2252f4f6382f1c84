package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "API_BASE_PATH", "STORAGE_BACKEND", "DRAFT_BACKEND", "DRAFT_TTL", "CORS_ALLOWED_ORIGINS", "CLINIC_PHONE", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("expected /api base path, got %q", cfg.APIBasePath)
	}
	if cfg.StorageBackend != BackendMemory || cfg.DraftBackend != BackendMemory {
		t.Fatalf("expected memory backends, got %s/%s", cfg.StorageBackend, cfg.DraftBackend)
	}
	if cfg.DraftTTL != 720*time.Hour {
		t.Fatalf("expected 30 day draft ttl, got %s", cfg.DraftTTL)
	}
	if !cfg.DraftRetentionEnabled() {
		t.Fatalf("expected draft retention enabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors default %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ClinicPhone != DefaultClinicPhone {
		t.Fatalf("expected default clinic phone, got %s", cfg.ClinicPhone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("API_BASE_PATH", "v1/")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("DRAFT_BACKEND", "redis")
	t.Setenv("DRAFT_TTL", "0")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	cfg := Load()
	if !cfg.TrustProxyHeaders {
		t.Fatalf("expected proxy headers to be trusted")
	}
	if cfg.Port != "9090" || cfg.Env != "production" {
		t.Fatalf("expected overrides, got %s/%s", cfg.Port, cfg.Env)
	}
	if cfg.APIBasePath != "/v1" {
		t.Fatalf("expected normalized base path, got %q", cfg.APIBasePath)
	}
	if cfg.StorageBackend != BackendPostgres {
		t.Fatalf("expected postgres backend, got %s", cfg.StorageBackend)
	}
	if cfg.DraftBackend != BackendRedis || !cfg.RedisTLS {
		t.Fatalf("expected redis drafts with tls")
	}
	if cfg.DraftTTL != 0 || cfg.DraftRetentionEnabled() {
		t.Fatalf("expected unbounded retention, got %s", cfg.DraftTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestRequireDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "  "}
	if _, err := cfg.RequireDatabaseURL(); !errors.Is(err, ErrDatabaseURLRequired) {
		t.Fatalf("expected ErrDatabaseURLRequired, got %v", err)
	}
	cfg.DatabaseURL = "postgres://localhost/clinic"
	url, err := cfg.RequireDatabaseURL()
	if err != nil || url != "postgres://localhost/clinic" {
		t.Fatalf("unexpected result %q %v", url, err)
	}
}

func TestNormalizeBasePathRoot(t *testing.T) {
	if got := normalizeBasePath("/"); got != "" {
		t.Fatalf("expected empty base path for root, got %q", got)
	}
}
