// Package config loads application configuration.
//
// Settings come from, in order of precedence: environment variables with the
// AKSON_ prefix, an optional YAML config file (AKSON_CONFIG or
// ~/.akson-cards/config.yaml), then built-in defaults. A .env file in the
// working directory is loaded into the environment first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/akson-app/cards/internal/model"
)

// Config holds all application settings.
type Config struct {
	// DBPath is the SQLite database location.
	// Env var: AKSON_DB. Default: ~/.akson-cards/cards.db
	DBPath string `yaml:"db_path"`

	// SessionLimit caps a single study session regardless of collection
	// caps. Zero means the collection's daily review cap applies.
	// Env var: AKSON_SESSION_LIMIT.
	SessionLimit int `yaml:"session_limit"`

	// Scheduling holds the defaults applied to new collections.
	Scheduling model.CollectionConfig `yaml:"scheduling"`
}

// Load builds the effective configuration.
func Load() (*Config, error) {
	// Side effect only; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:     defaultDBPath(),
		Scheduling: model.DefaultCollectionConfig(),
	}

	if err := loadFile(cfg); err != nil {
		return nil, err
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Scheduling.RequestRetention <= 0 || cfg.Scheduling.RequestRetention >= 1 {
		return nil, fmt.Errorf("config: request retention %f outside (0, 1)", cfg.Scheduling.RequestRetention)
	}
	return cfg, nil
}

// loadFile merges the YAML config file into cfg when one exists.
func loadFile(cfg *Config) error {
	path := os.Getenv("AKSON_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".akson-cards", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overrides cfg from AKSON_* environment variables.
func loadEnv(cfg *Config) error {
	if v := os.Getenv("AKSON_DB"); v != "" {
		cfg.DBPath = v
	}
	if err := envInt("AKSON_SESSION_LIMIT", &cfg.SessionLimit); err != nil {
		return err
	}
	if v := os.Getenv("AKSON_REQUEST_RETENTION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: AKSON_REQUEST_RETENTION: %w", err)
		}
		cfg.Scheduling.RequestRetention = f
	}
	if err := envInt("AKSON_DAILY_NEW_CAP", &cfg.Scheduling.DailyNewCap); err != nil {
		return err
	}
	if err := envInt("AKSON_DAILY_REVIEW_CAP", &cfg.Scheduling.DailyReviewCap); err != nil {
		return err
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cards.db"
	}
	return filepath.Join(home, ".akson-cards", "cards.db")
}
