package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "PLANTKEEPER_AI_MODEL", "PLANTKEEPER_BACKEND_URL",
		"PLANTKEEPER_DB", "PLANTKEEPER_SESSION_FILE", "PLANTKEEPER_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "plantkeeper" {
		t.Errorf("expected Name=plantkeeper, got %s", cfg.Name)
	}
	if cfg.AI.Provider != "gemini" {
		t.Errorf("expected Provider=gemini, got %s", cfg.AI.Provider)
	}
	if cfg.Backend.GuestTokenHeader != "X-Guest-Token" {
		t.Errorf("expected guest header X-Guest-Token, got %s", cfg.Backend.GuestTokenHeader)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.AI.APIKey = "gm-test"
	cfg.Backend.BaseURL = "https://plants.example.com/api"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.AI.APIKey != "gm-test" {
		t.Errorf("expected APIKey=gm-test, got %s", loaded.AI.APIKey)
	}
	if loaded.Backend.BaseURL != "https://plants.example.com/api" {
		t.Errorf("unexpected BaseURL %s", loaded.Backend.BaseURL)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DatabasePath != DefaultConfig().Storage.DatabasePath {
		t.Errorf("expected default database path, got %s", cfg.Storage.DatabasePath)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("ai: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without API key")
	}

	cfg.AI.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.AI.Provider = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid provider error")
	}
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.AI.GetTimeout(); got != 90*time.Second {
		t.Errorf("AI timeout = %v", got)
	}

	cfg.Backend.Timeout = "garbage"
	if got := cfg.Backend.GetTimeout(); got != 20*time.Second {
		t.Errorf("expected fallback 20s, got %v", got)
	}
}
