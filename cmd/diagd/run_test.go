package main

import (
	"testing"
)

func resetRunFlags() {
	runFlags.host = ""
	runFlags.port = 0
	runFlags.noChecks = false
	runFlags.noticePath = ""
	runFlags.k8s = false
	runFlags.dryRun = false
	cfgFile = ""
	debug = false
}

func TestLoadConfigDefaults(t *testing.T) {
	resetRunFlags()
	t.Cleanup(resetRunFlags)

	dir := t.TempDir()
	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Diag.ConfigDir != dir {
		t.Errorf("ConfigDir = %q, want %q", cfg.Diag.ConfigDir, dir)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:8877" {
		t.Errorf("ListenAddress = %q, want default", cfg.Server.ListenAddress)
	}
	if !cfg.Diag.HealthChecksEnabled() {
		t.Errorf("health checks disabled by default")
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	resetRunFlags()
	t.Cleanup(resetRunFlags)

	runFlags.host = "127.0.0.1"
	runFlags.port = 9877
	runFlags.noChecks = true
	runFlags.noticePath = "/etc/edgeline/notices.json"
	runFlags.k8s = true
	debug = true

	cfg, err := loadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9877" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:9877", cfg.Server.ListenAddress)
	}
	if cfg.Diag.HealthChecksEnabled() {
		t.Errorf("health checks still enabled with --no-checks")
	}
	if cfg.Diag.NoticePath != "/etc/edgeline/notices.json" {
		t.Errorf("NoticePath = %q", cfg.Diag.NoticePath)
	}
	if !cfg.Diag.K8s {
		t.Errorf("k8s mode not enabled")
	}
	if cfg.Telemetry.Logging.Level != "debug" || !cfg.Diag.Verbose {
		t.Errorf("--debug did not enable debug logging and verbose output")
	}
}

func TestLoadConfigHostOnly(t *testing.T) {
	resetRunFlags()
	t.Cleanup(resetRunFlags)

	runFlags.host = "10.0.0.5"

	cfg, err := loadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.ListenAddress != "10.0.0.5:8877" {
		t.Errorf("ListenAddress = %q, want 10.0.0.5:8877", cfg.Server.ListenAddress)
	}
}

func TestRunCommandRequiresConfigDir(t *testing.T) {
	if runCmd.Args == nil {
		t.Fatal("runCmd has no positional-argument validation")
	}
	if err := runCmd.Args(runCmd, []string{}); err == nil {
		t.Error("runCmd accepted zero arguments")
	}
	if err := runCmd.Args(runCmd, []string{"/tmp/edgeline"}); err != nil {
		t.Errorf("runCmd rejected a single config dir: %v", err)
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}
