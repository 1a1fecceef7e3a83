package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.RateLimit != 10 || cfg.RateBurst != 5 {
		t.Errorf("rate defaults = %v, %v", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.Insecure {
		t.Error("Insecure should default to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MBSWITCH_HOST", "https://mb.example.com")
	t.Setenv("MBSWITCH_API_KEY", "env-key")
	t.Setenv("MBSWITCH_INSECURE", "true")
	t.Setenv("MBSWITCH_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Host != "https://mb.example.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if !cfg.Insecure {
		t.Error("Insecure not applied")
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v", cfg.RateLimit)
	}
}

func TestLoadAPIKeyFromFile(t *testing.T) {
	clearEnv(t)

	keyPath := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyPath, []byte("file-key"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	t.Setenv("MBSWITCH_API_KEY_FILE", keyPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.APIKey)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MBSWITCH_HOST", "MBSWITCH_API_KEY", "MBSWITCH_API_KEY_FILE",
		"MBSWITCH_INSECURE", "MBSWITCH_LOG_LEVEL", "MBSWITCH_RATE_LIMIT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
