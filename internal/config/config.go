// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database and backups (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Brokerage accounting defaults. Values in the system_config table
	// take precedence at runtime.
	StartingCash    float64 // Cash endowment granted at registration
	Commission      float64 // Fixed per-trade commission recorded on ledger entries
	EnforceSolvency bool    // Reject buys that would drive the cash balance negative

	SessionTTL      time.Duration // Session token lifetime
	AuditRetention  int           // Days to keep access/activity/error log rows
	BackupRetention int           // Days to keep off-site backups
	BackupsEnabled  bool
	Backup          *BackupConfig
}

// BackupConfig holds S3-compatible off-site backup credentials.
// Nil means local snapshots only.
type BackupConfig struct {
	Endpoint        string // Custom endpoint for R2/MinIO style stores
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BROKER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("BROKER_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		StartingCash:    getEnvAsFloat("STARTING_CASH", 100000.0),
		Commission:      getEnvAsFloat("TRADE_COMMISSION", 9.99),
		EnforceSolvency: getEnvAsBool("ENFORCE_SOLVENCY", true),
		SessionTTL:      time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		AuditRetention:  getEnvAsInt("AUDIT_RETENTION_DAYS", 30),
		BackupRetention: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		BackupsEnabled:  getEnvAsBool("BACKUPS_ENABLED", true),
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.StartingCash < 0 {
		return fmt.Errorf("STARTING_CASH must not be negative")
	}
	if c.Commission < 0 {
		return fmt.Errorf("TRADE_COMMISSION must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	return nil
}

// loadBackupConfig loads off-site backup credentials from the environment.
// Returns nil when no bucket is configured, which disables uploads.
func loadBackupConfig() *BackupConfig {
	bucket := getEnv("BACKUP_S3_BUCKET", "")
	if bucket == "" {
		return nil
	}
	return &BackupConfig{
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Bucket:          bucket,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
