// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	BaseURL              string
	ManagementKey        string
	ConfigYAMLPath       string
	AuthDir              string
	DatabasePath         string
	LogFilePath          string
	QuotaRefreshInterval time.Duration
}

// Default values
const (
	defaultBaseURL              = "http://127.0.0.1:8317"
	defaultQuotaRefreshInterval = 5 * time.Minute
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		BaseURL:              getEnvString("CPA_BASE_URL", defaultBaseURL),
		ManagementKey:        getEnvString("CPA_MANAGEMENT_KEY", ""),
		ConfigYAMLPath:       getEnvString("CPA_CONFIG_PATH", getDefaultConfigYAMLPath()),
		AuthDir:              getEnvString("CPA_AUTH_DIR", getDefaultAuthDir()),
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		LogFilePath:          getEnvString("LOG_FILE", ""),
		QuotaRefreshInterval: getEnvDuration("QUOTA_REFRESH_INTERVAL", defaultQuotaRefreshInterval),
	}

	// The management key can live in the service's own config file; the
	// environment wins when both are set.
	if cfg.ManagementKey == "" {
		cfg.ManagementKey = LoadManagementKey(cfg.ConfigYAMLPath)
	}
	if cfg.ManagementKey == "" {
		return nil, fmt.Errorf(
			"CPA_MANAGEMENT_KEY is required (set via env or remote-management.secret-key in %s)", cfg.ConfigYAMLPath)
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	if cfg.LogFilePath != "" {
		if err := ensureDir(filepath.Dir(cfg.LogFilePath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "cpa-quota-dashboard", ".env"),
			filepath.Join(home, ".cli-proxy-api", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// getDefaultConfigYAMLPath returns the default location of the service's
// config.yaml.
func getDefaultConfigYAMLPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".cli-proxy-api", "config.yaml")
}

// getDefaultAuthDir returns the default credential directory of the service.
func getDefaultAuthDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cli-proxy-api")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quota.db"
	}
	return filepath.Join(home, ".config", "cpa-quota-dashboard", "quota.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
