package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if !cfg.RateLimitEnabled {
		t.Fatal("expected rate limiting enabled by default")
	}
	if cfg.AMQPURL != "" {
		t.Fatalf("expected no amqp url by default, got %q", cfg.AMQPURL)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("CHECKIN_CREDENTIAL_TTL", "48h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitEnabled {
		t.Fatal("expected rate limiting disabled")
	}
	if cfg.CredentialTTL != 48*time.Hour {
		t.Fatalf("expected 48h credential ttl, got %s", cfg.CredentialTTL)
	}
}
