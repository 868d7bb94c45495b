package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string  // Log verbosity level
	logFile    string  // Rotated log file, stderr when empty
	configPath string  // YAML config file
	cfg        *Config // Settings resolved by the root command before any subcommand runs
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "facmaker",
	Short: "Tick-based simulator for factory production networks",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("unable to load configuration; %v", err)
		}
		if cmd.Flags().Changed("log") {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			loaded.Log.File = logFile
		}
		if err := loaded.Validate(); err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := setupLogging(loaded.Log); err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg = loaded
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file with size-based rotation")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./facmaker.yaml when present)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runsCmd)
}
