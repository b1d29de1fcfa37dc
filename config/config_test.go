package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COURSEMART_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8099" || cfg.Payment.Provider != "paystack" {
		t.Errorf("unexpected defaults: port=%s provider=%s", cfg.Server.Port, cfg.Payment.Provider)
	}
	if cfg.Payment.PendingTTL != 24*time.Hour {
		t.Errorf("pending ttl = %v", cfg.Payment.PendingTTL)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "coursemart.yaml")
	yaml := "server:\n  port: \"9000\"\npayment:\n  provider: stub\n  secret_key: sk_file\n  pending_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COURSEMART_CONFIG", path)
	t.Setenv("COURSEMART_SERVER_PORT", "9100")
	t.Setenv("COURSEMART_REDIS_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("env should win over file: port = %s", cfg.Server.Port)
	}
	if cfg.Payment.Provider != "stub" || cfg.Payment.PendingTTL != 2*time.Hour {
		t.Errorf("file values not applied: %+v", cfg.Payment)
	}
	if cfg.Payment.WebhookSecret != "sk_file" {
		t.Errorf("webhook secret should fall back to the secret key, got %q", cfg.Payment.WebhookSecret)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis.enabled not read from env")
	}
}
