package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"edgeline/diagd/pkg/config"
	"edgeline/diagd/pkg/server"
	"edgeline/diagd/pkg/telemetry/logging"
)

var runFlags struct {
	host       string
	port       int
	noChecks   bool
	noticePath string
	k8s        bool
	dryRun     bool
}

var runCmd = &cobra.Command{
	Use:   "run CONFIG_DIR",
	Short: "Start the diagnostic server",
	Long: `Start the diagnostic server over the generated configuration under
CONFIG_DIR. The newest sync-N directory is rediscovered on every request.

Examples:
  # Serve diagnostics on the default port
  diagd run /tmp/edgeline

  # Bind somewhere else
  diagd run /tmp/edgeline --host 127.0.0.1 --port 9877

  # Skip the periodic Envoy admin polls
  diagd run /tmp/edgeline --no-checks

  # Validate configuration without serving
  diagd run /tmp/edgeline --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.host, "host", "", "interface to bind to")
	runCmd.Flags().IntVar(&runFlags.port, "port", 0, "port to listen on")
	runCmd.Flags().BoolVar(&runFlags.noChecks, "no-checks", false, "disable background health checks")
	runCmd.Flags().StringVar(&runFlags.noticePath, "notices", "", "local notices file")
	runCmd.Flags().BoolVar(&runFlags.k8s, "k8s", false, "parse resources as Kubernetes manifests")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	srv, err := server.NewServer(cfg, Version, logger)
	if err != nil {
		return err
	}

	return srv.Start(context.Background())
}

// loadConfig merges the optional config file, the positional config dir,
// and the flag overrides. Flags always win.
func loadConfig(configDir string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.New()
	}

	cfg.Diag.ConfigDir = configDir

	if runFlags.host != "" || runFlags.port != 0 {
		host, port, splitErr := net.SplitHostPort(cfg.Server.ListenAddress)
		if splitErr != nil {
			return nil, fmt.Errorf("bad listen address %q: %w", cfg.Server.ListenAddress, splitErr)
		}
		if runFlags.host != "" {
			host = runFlags.host
		}
		if runFlags.port != 0 {
			port = strconv.Itoa(runFlags.port)
		}
		cfg.Server.ListenAddress = net.JoinHostPort(host, port)
	}

	if runFlags.noChecks {
		disabled := false
		cfg.Diag.HealthChecks = &disabled
	}
	if runFlags.noticePath != "" {
		cfg.Diag.NoticePath = runFlags.noticePath
	}
	if runFlags.k8s {
		cfg.Diag.K8s = true
	}
	if debug {
		cfg.Telemetry.Logging.Level = "debug"
		cfg.Diag.Verbose = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
