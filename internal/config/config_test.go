package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverFile {
		t.Fatalf("expected default driver %q, got %q", DriverFile, cfg.StoreDriver)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected default address :8080, got %q", cfg.Address())
	}
	if cfg.ShutdownPeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown period %s", cfg.ShutdownPeriod)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("default env should count as development")
	}
}

func TestLoadValidatesDriverRequirements(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("redis driver without REDIS_URL should fail")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverRedis {
		t.Fatalf("expected redis driver, got %q", cfg.StoreDriver)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

func TestLoadShutdownOverrides(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("expected 3s shutdown period, got %s", cfg.ShutdownPeriod)
	}
}
