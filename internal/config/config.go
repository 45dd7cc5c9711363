package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"shelf-reader/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	DataDir           string
	DatabasePath      string
	LogLevel          string
	IdleTimeout       time.Duration
	SessionFloor      time.Duration
	ThumbnailMaxBytes int
	FlowedPageChars   int
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	dataDir := getEnvOrDefault("SHELF_DATA_DIR", defaultDataDir())

	return &AppConfig{
		DataDir:           dataDir,
		DatabasePath:      getEnvOrDefault("SHELF_DB_PATH", filepath.Join(dataDir, "shelf.db")),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		IdleTimeout:       getEnvDurationOrDefault("SHELF_IDLE_TIMEOUT", 60*time.Second),
		SessionFloor:      getEnvDurationOrDefault("SHELF_SESSION_FLOOR", 60*time.Second),
		ThumbnailMaxBytes: getEnvIntOrDefault("SHELF_THUMBNAIL_MAX_BYTES", domain.ThumbnailMaxBytes),
		FlowedPageChars:   getEnvIntOrDefault("SHELF_FLOWED_PAGE_CHARS", 2600),
	}
}

func (c *AppConfig) GetDataDir() string             { return c.DataDir }
func (c *AppConfig) GetDatabasePath() string        { return c.DatabasePath }
func (c *AppConfig) GetLogLevel() string            { return c.LogLevel }
func (c *AppConfig) GetIdleTimeout() time.Duration  { return c.IdleTimeout }
func (c *AppConfig) GetSessionFloor() time.Duration { return c.SessionFloor }
func (c *AppConfig) GetThumbnailMaxBytes() int      { return c.ThumbnailMaxBytes }
func (c *AppConfig) GetFlowedPageChars() int        { return c.FlowedPageChars }

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shelf-reader"
	}
	return filepath.Join(home, ".shelf-reader")
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
