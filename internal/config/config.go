package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DatabaseURL           string          `yaml:"database_url"`
	SQLitePath            string          `yaml:"sqlite_path"`
	BoltPath              string          `yaml:"bolt_path"`
	HTTPPort              string          `yaml:"http_port"`
	DefaultCommissionRate decimal.Decimal `yaml:"default_commission_rate"`
	HistoryLimit          int             `yaml:"history_limit"`
	BackupDir             string          `yaml:"backup_dir"`
	BackupCron            string          `yaml:"backup_cron"`
	SheetsSpreadsheetID   string          `yaml:"sheets_spreadsheet_id"`
	GoogleCredentialsJSON string          `yaml:"google_credentials_json"`
	ShutdownTimeout       time.Duration   `yaml:"shutdown_timeout"`
}

func defaults() Config {
	return Config{
		HTTPPort:              "8080",
		DefaultCommissionRate: decimal.NewFromInt(55),
		HistoryLimit:          100,
		BackupCron:            "0 3 * * *",
		ShutdownTimeout:       30 * time.Second,
	}
}

// Load reads the optional YAML file named by POOLSHARE_CONFIG, then applies
// environment variable overrides. A missing file is not an error.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("POOLSHARE_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = envOrDefault("SQLITE_PATH", cfg.SQLitePath)
	cfg.BoltPath = envOrDefault("BOLT_PATH", cfg.BoltPath)
	cfg.HTTPPort = envOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.DefaultCommissionRate = envOrDefaultDecimal("DEFAULT_COMMISSION_RATE", cfg.DefaultCommissionRate)
	cfg.HistoryLimit = envOrDefaultInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.BackupDir = envOrDefault("BACKUP_DIR", cfg.BackupDir)
	cfg.BackupCron = envOrDefault("BACKUP_CRON", cfg.BackupCron)
	cfg.SheetsSpreadsheetID = envOrDefault("SHEETS_SPREADSHEET_ID", cfg.SheetsSpreadsheetID)
	cfg.GoogleCredentialsJSON = envOrDefault("GOOGLE_CREDENTIALS_JSON", cfg.GoogleCredentialsJSON)
	cfg.ShutdownTimeout = envOrDefaultDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" && cfg.BoltPath == "" {
		slog.Warn("no DATABASE_URL, SQLITE_PATH or BOLT_PATH set, using in-memory storage")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("config file not found, using defaults", "path", path)
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			slog.Warn("invalid decimal env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
