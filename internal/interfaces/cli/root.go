// Package cli implements the trackerctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "Conference-paper analytics service",
	Long: `trackerctl serves and inspects conference-paper analytics dashboards:
per-country aggregation with a focus-country drill-down, derived comparison
charts, and institution rankings computed from published dataset files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: configs/config.yaml, then environment)")
}

// loadConfig resolves configuration from the --config flag, the default
// file location, or the environment.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	if _, err := os.Stat("configs/config.yaml"); err == nil {
		return config.Load("configs/config.yaml")
	}
	return config.LoadFromEnv()
}
