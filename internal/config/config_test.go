package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWT.Secret == "" {
		t.Error("development falls back to a default secret")
	}
	if cfg.JWT.Expiration != 24*time.Hour {
		t.Errorf("expected 24h expiration, got %v", cfg.JWT.Expiration)
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without JWT_SECRET in production")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "x")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_LIST", " a, b ,,c ")

	if got := getEnvAsInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvAsInt = %d", got)
	}
	if got := getEnvAsInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("invalid ints fall back to the default, got %d", got)
	}
	if got := getEnvAsDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvAsDuration = %v", got)
	}
	got := getEnvAsList("TEST_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("getEnvAsList = %q", got)
	}
}

func TestDSN(t *testing.T) {
	c := DBConfig{User: "u", Password: "p", Host: "h", Port: "5432", Name: "db", SSLMode: "disable"}
	if got := c.DSN(); got != "postgres://u:p@h:5432/db?sslmode=disable" {
		t.Errorf("DSN() = %q", got)
	}
}
