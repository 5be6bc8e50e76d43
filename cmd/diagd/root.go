package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "diagd",
	Short: "Edgeline diagnostic daemon",
	Long: `Diagd serves diagnostic pages for an Edgeline gateway node.

It discovers the newest sync-N generation of generated configuration under
a configured root directory, rebuilds a fresh snapshot of it per request,
and renders the overview and per-source diagnostic views. It also answers
the orchestrator's liveness and readiness probes and exposes Prometheus
metrics.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
