package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Legacy preferences store
	LegacyStorePath string

	// Currency rates
	RatesBaseURL string
	RatesTimeout time.Duration

	// Receipt parsing
	GeminiAPIKey string
	GeminiModel  string

	// Report defaults
	ReportMonths int
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pennykeep.db"),

		LegacyStorePath: getEnv("LEGACY_STORE_PATH", "./data/preferences.json"),

		RatesBaseURL: getEnv("RATES_BASE_URL", "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api"),
		RatesTimeout: getEnvDuration("RATES_TIMEOUT", 10*time.Second),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),

		ReportMonths: getEnvInt("REPORT_MONTHS", 12),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate legacy store path
	if c.LegacyStorePath == "" {
		errors = append(errors, "legacy store path cannot be empty")
	}

	// Validate rates base URL
	if c.RatesBaseURL == "" {
		errors = append(errors, "rates base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.RatesBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rates base URL '%s': %v", c.RatesBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid rates base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.RatesTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rates timeout %v: must be at least 1 second", c.RatesTimeout))
	} else if c.RatesTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates timeout %v: must be at most 1 minute", c.RatesTimeout))
	}

	// Receipt parsing is optional, but a key without a model is a misconfiguration
	if c.GeminiAPIKey != "" && c.GeminiModel == "" {
		errors = append(errors, "Gemini model cannot be empty when GEMINI_API_KEY is provided")
	}

	// Validate report defaults
	if c.ReportMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid report months %d: must be at least 1", c.ReportMonths))
	} else if c.ReportMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid report months %d: must be at most 120", c.ReportMonths))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
