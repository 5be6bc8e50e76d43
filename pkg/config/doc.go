// Package config defines the daemon's configuration structures and the
// load/default/validate sequence for them. Configuration comes from a YAML
// file, optionally overridden by EDGELINE_* environment variables and CLI
// flags.
package config
