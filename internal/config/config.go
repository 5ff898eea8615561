package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the content core and its CLI.
// Environment variables are automatically parsed from the CONTENT_CORE_
// prefix.
type Config struct {
	// DBDriver selects the store backend: sqlite or postgres.
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"content-core.db"`

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// LogLevel filters zerolog output (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ResolveDefaults validates driver selection and its required settings.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("CONTENT_CORE_SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("CONTENT_CORE_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: CONTENT_CORE_DB_DRIVER, CONTENT_CORE_SQLITE_PATH.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CONTENT_CORE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("log_level", cfg.LogLevel).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}
