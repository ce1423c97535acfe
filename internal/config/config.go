// Package config reads the backend configuration from environment
// variables.
package config

import (
	"net/url"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the backend.
type Config struct {
	// APIURL is the URL the backend is reachable at. It is used to
	// construct the links in API responses.
	APIURL string `envconfig:"API_URL" default:"http://localhost:8080"`

	// DBPath is the path of the SQLite database file.
	DBPath string `envconfig:"DB_PATH" default:"data/gorm.db"`

	// OCRURL is the URL of the receipt scanning service. When it is
	// empty, scanning is disabled and receipts have to be entered
	// manually.
	OCRURL string `envconfig:"OCR_URL" default:""`

	// LogFormat switches between JSON and human readable log output.
	LogFormat string `envconfig:"LOG_FORMAT" default:""`
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if _, err := url.Parse(cfg.APIURL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
