package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path, applies
// default values and environment variable overrides, and validates the
// result. Environment variables use the EDGELINE_SECTION_FIELD convention
// (e.g. EDGELINE_SERVER_LISTEN_ADDRESS) and always take precedence over
// file-based configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// New returns a configuration with all defaults applied and no file input.
// Callers are expected to set Diag.ConfigDir before validating.
func New() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("EDGELINE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("EDGELINE_DIAG_CONFIG_DIR"); val != "" {
		cfg.Diag.ConfigDir = val
	}
	if val := os.Getenv("EDGELINE_DIAG_NOTICE_PATH"); val != "" {
		cfg.Diag.NoticePath = val
	}
	if val := os.Getenv("EDGELINE_DIAG_UPDATE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Diag.UpdateInterval = d
		}
	}
	if val := os.Getenv("EDGELINE_ENVOY_ADMIN_URL"); val != "" {
		cfg.Envoy.AdminURL = val
	}
	if val := os.Getenv("EDGELINE_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("EDGELINE_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
