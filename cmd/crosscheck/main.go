package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TheMichaelB/crosscheck/internal/config"
	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/events"
)

var rootCmd = &cobra.Command{
	Use:   "crosscheck",
	Short: "Cross-platform crypto regression vector tool",
	Long: `Crosscheck generates deterministic cryptographic test vectors,
packages them into self-describing archives, and verifies archives
produced by other platform implementations.

Every platform both produces a dataset and consumes every other
platform's dataset, including its own.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
}

var (
	cfgPath    string
	jsonOutput bool

	cfg      *config.Config
	logger   *events.Logger
	provider crypto.Provider
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().String("log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("archive-root", "",
		"Base directory for regression archives")

	viper.SetEnvPrefix("CROSSCHECK")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("archive_root", rootCmd.PersistentFlags().Lookup("archive-root"))
}

// initApp loads config and wires the shared logger and crypto provider.
func initApp() error {
	loader := config.NewLoader(cfgPath)

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flag/env overrides via viper.
	if v := viper.GetString("log_level"); v != "" {
		cfg.Log.Level = v
	}
	if v := viper.GetString("archive_root"); v != "" {
		cfg.Archive.Root = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(logger)

	provider = crypto.NewProvider()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
