package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/VatsalSy/stepwatch/internal/app"
	"github.com/VatsalSy/stepwatch/internal/config"
)

var (
	cfgFile  string
	verbose  bool
	settings = viper.New()
	rootCmd  = &cobra.Command{
		Use:   "stepwatch",
		Short: "Progress and time-remaining tracking for multi-step operations",
		Long: `StepWatch tracks long-running, multi-step operations and keeps a live
estimate of how long the current step has left.

Features:
  • Sliding-window throughput estimates
  • Pause-aware timing
  • Text, JSON and progress bar output
  • Step journal with run history
  • Prometheus metrics`,
		Version:      "0.1.0",
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.stepwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)

	// Enable shell completion
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

func initConfig() {
	if err := config.InitViper(settings, cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}

	if verbose {
		settings.Set("log.level", "debug")
		if used := settings.ConfigFileUsed(); used != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", used)
		}
	}
}

// newApp builds the application context from the loaded settings.
func newApp(opts ...app.Option) (*app.App, error) {
	cfg, err := config.LoadFromViper(settings)
	if err != nil {
		return nil, err
	}
	cfg.Version = rootCmd.Version
	return app.New(cfg, opts...)
}
