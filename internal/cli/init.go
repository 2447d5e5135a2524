// Package cli provides common CLI initialization utilities shared by the
// pennykeep binaries.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"pennykeep/internal/config"
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
	"pennykeep/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the process default.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// OpenLegacyStore opens the flat preference store at the given path.
// Returns the store or exits the process on failure.
func OpenLegacyStore(logger *log.Logger, path string) *legacy.Store {
	prefs, err := legacy.Open(path)
	if err != nil {
		logger.Error("Failed to open legacy preference store",
			log.FieldError, err, "path", path)
		os.Exit(1)
	}
	return prefs
}
