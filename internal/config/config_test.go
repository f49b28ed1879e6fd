package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinicq")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.TokenExpireMinutes != 30 {
		t.Errorf("expected default token expiry 30, got %d", cfg.TokenExpireMinutes)
	}
	if !cfg.IsDev() {
		t.Error("expected development env by default")
	}
	if cfg.TokenLifetime() != 30*time.Minute {
		t.Errorf("expected 30m lifetime, got %v", cfg.TokenLifetime())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinicq")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_EXPIRE_MINUTES", "5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.TokenExpireMinutes != 5 {
		t.Errorf("expected 5 minute expiry, got %d", cfg.TokenExpireMinutes)
	}
}

func TestValidate_RequiresSecretOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", TokenExpireMinutes: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without JWT_SECRET in production")
	}
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsNonPositiveExpiry(t *testing.T) {
	cfg := &Config{Env: "development", TokenExpireMinutes: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero token expiry")
	}
}
