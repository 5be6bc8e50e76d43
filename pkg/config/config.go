package config

import "time"

// Config is the root configuration structure for the diagnostic daemon.
// It covers the HTTP server, the diagnostic pipeline, the Envoy admin
// connection, scout telemetry, and observability settings.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Diag contains configuration for the diagnostic pipeline: where
	// generated configuration lives, the local notices file, and the
	// background health updater.
	Diag DiagConfig `yaml:"diag"`

	// Envoy contains configuration for talking to the Envoy admin port.
	Envoy EnvoyConfig `yaml:"envoy"`

	// Scout contains configuration for telemetry reporting and the local
	// report archive.
	Scout ScoutConfig `yaml:"scout"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the diagnostic HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "0.0.0.0:8877"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is how long to wait for in-flight requests during
	// graceful shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers. Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// DiagConfig contains configuration for the diagnostic pipeline.
type DiagConfig struct {
	// ConfigDir is the root directory scanned for sync-N generation
	// directories. Required.
	ConfigDir string `yaml:"config_dir"`

	// NoticePath is an optional local file read for operator notices on
	// every request. A missing file is tolerated silently.
	NoticePath string `yaml:"notice_path"`

	// HealthChecks enables the background stats updater that feeds the
	// readiness probe. Default: true
	HealthChecks *bool `yaml:"health_checks"`

	// UpdateInterval is how often the background updater refreshes live
	// proxy statistics. Default: 5s
	UpdateInterval time.Duration `yaml:"update_interval"`

	// K8s enables Kubernetes-style resource parsing in the config loader.
	K8s bool `yaml:"k8s"`

	// Verbose enables debug dumps of diagnostics output.
	Verbose bool `yaml:"verbose"`
}

// EnvoyConfig contains configuration for the Envoy admin interface.
type EnvoyConfig struct {
	// AdminURL is the base URL of the Envoy admin port.
	// Default: "http://127.0.0.1:8001"
	AdminURL string `yaml:"admin_url"`

	// Timeout bounds each admin request. Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// ConfigVersion is the Envoy config version tag passed to the
	// config generator. Default: "V2"
	ConfigVersion string `yaml:"config_version"`
}

// ScoutConfig contains configuration for scout telemetry.
type ScoutConfig struct {
	// Enabled turns telemetry reporting on. Default: true
	Enabled *bool `yaml:"enabled"`

	// ArchivePath is the SQLite database file recording reports locally.
	// Empty disables the archive.
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text". Default: "text"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint. Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace is the metric name prefix. Default: "edgeline"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem. Default: "diagd"
	Subsystem string `yaml:"subsystem"`

	// Path is the HTTP path of the metrics endpoint. Default: "/metrics"
	Path string `yaml:"path"`
}

// HealthChecksEnabled reports whether the background updater should run.
func (c *DiagConfig) HealthChecksEnabled() bool {
	return c.HealthChecks == nil || *c.HealthChecks
}

// ScoutEnabled reports whether telemetry reporting is on.
func (c *ScoutConfig) ScoutEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// MetricsEnabled reports whether the metrics endpoint is exposed.
func (c *MetricsConfig) MetricsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
