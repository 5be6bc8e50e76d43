package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for errors and returns a descriptive
// error for the first problem found.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("server.listen_address %q is not a valid host:port: %w",
			cfg.Server.ListenAddress, err)
	}

	if cfg.Diag.ConfigDir == "" {
		return fmt.Errorf("diag.config_dir is required")
	}
	if cfg.Diag.UpdateInterval <= 0 {
		return fmt.Errorf("diag.update_interval must be positive, got %v",
			cfg.Diag.UpdateInterval)
	}

	if !strings.HasPrefix(cfg.Envoy.AdminURL, "http://") &&
		!strings.HasPrefix(cfg.Envoy.AdminURL, "https://") {
		return fmt.Errorf("envoy.admin_url %q must be an http or https URL",
			cfg.Envoy.AdminURL)
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level %q is not one of debug, info, warn, error",
			cfg.Telemetry.Logging.Level)
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text",
			cfg.Telemetry.Logging.Format)
	}

	return nil
}
