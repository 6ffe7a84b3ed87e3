package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_PORT", "APP_PUBLIC_ORIGIN", "SESSION_COOKIE_NAME", "SESSION_COOKIE_SECURE", "UPLOAD_MAX_BYTES", "BACKEND_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.CookieName != "auth_token" {
		t.Fatalf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.Session.CookieTTL() != 24*time.Hour {
		t.Fatalf("cookie ttl = %v", cfg.Session.CookieTTL())
	}
	if cfg.Session.Secure {
		t.Fatalf("secure cookie outside production")
	}
	if cfg.Upload.MaxBytes != 10*1024*1024 {
		t.Fatalf("upload max = %d", cfg.Upload.MaxBytes)
	}
	if cfg.Backend.Timeout() != 0 {
		t.Fatalf("backend timeout = %v, want none", cfg.Backend.Timeout())
	}
	if cfg.App.PublicOrigin != "http://localhost:3000" {
		t.Fatalf("origin = %q", cfg.App.PublicOrigin)
	}
}

func TestLoadProductionSecuresCookie(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_COOKIE_SECURE", "")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Session.Secure {
		t.Fatalf("expected secure cookie in production")
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
}

func TestLoadRejectsBadUploadLimit(t *testing.T) {
	t.Setenv("UPLOAD_MAX_BYTES", "lots")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid UPLOAD_MAX_BYTES")
	}
}
