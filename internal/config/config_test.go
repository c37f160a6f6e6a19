package config

import (
	"testing"
	"time"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without OPENROUTER_API_KEY")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MaxAgeHours != 168 {
		t.Errorf("MaxAgeHours = %d, want 168", cfg.MaxAgeHours)
	}
	if cfg.Model != "deepseek/deepseek-chat" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.OutputFile != "metals_news.json" {
		t.Errorf("OutputFile = %q", cfg.OutputFile)
	}
	if cfg.EntryDelay != 1500*time.Millisecond {
		t.Errorf("EntryDelay = %v, want 1.5s", cfg.EntryDelay)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", cfg.RetryAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("MAX_AGE_HOURS", "24")
	t.Setenv("OPENROUTER_MODEL", "other/model")
	t.Setenv("OUTPUT_FILE", "out.json")
	t.Setenv("ENTRY_DELAY_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MaxAgeHours != 24 {
		t.Errorf("MaxAgeHours = %d, want 24", cfg.MaxAgeHours)
	}
	if cfg.Model != "other/model" {
		t.Errorf("Model = %q, want override", cfg.Model)
	}
	if cfg.OutputFile != "out.json" {
		t.Errorf("OutputFile = %q, want override", cfg.OutputFile)
	}
	if cfg.EntryDelay != 0 {
		t.Errorf("EntryDelay = %v, want 0", cfg.EntryDelay)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("MAX_AGE_HOURS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxAgeHours != 168 {
		t.Errorf("MaxAgeHours = %d, want default 168 for invalid value", cfg.MaxAgeHours)
	}
}
