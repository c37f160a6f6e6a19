package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// OpenRouter settings
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	Model             string

	// Sources settings
	SourcesConfigPath string
	MaxAgeHours       int

	// Output settings
	OutputFile string

	// Pacing between external calls
	EntryDelay  time.Duration // pause between AI-classified entries
	SourcePause time.Duration // pause between feed endpoints

	// Retry settings for feed fetching
	RetryAttempts int
	RetryDelay    time.Duration

	// App settings
	Debug            bool
	EnableMonitoring bool
	MonitoringPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		OpenRouterBaseURL: "https://openrouter.ai/api/v1",
		Model:             "deepseek/deepseek-chat",
		SourcesConfigPath: "configs/sources.yaml",
		MaxAgeHours:       168,
		OutputFile:        "metals_news.json",
		EntryDelay:        1500 * time.Millisecond,
		SourcePause:       2 * time.Second,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
		MonitoringPort:    "8080",
	}

	// Load from environment
	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.OpenRouterBaseURL = getEnvOrDefault("OPENROUTER_BASE_URL", cfg.OpenRouterBaseURL)
	cfg.Model = getEnvOrDefault("OPENROUTER_MODEL", cfg.Model)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.OutputFile = getEnvOrDefault("OUTPUT_FILE", cfg.OutputFile)

	if v := os.Getenv("MAX_AGE_HOURS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxAgeHours = val
		}
	}
	if v := os.Getenv("ENTRY_DELAY_MS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.EntryDelay = time.Duration(val) * time.Millisecond
		}
	}
	if v := os.Getenv("SOURCE_PAUSE_MS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.SourcePause = time.Duration(val) * time.Millisecond
		}
	}
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	if v := os.Getenv("RETRY_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryDelay = time.Duration(val) * time.Second
		}
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		cfg.EnableMonitoring = true
	}
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	return nil
}
