// Package cli implements the partload command line.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arkilian/partload/internal/app"
	"github.com/arkilian/partload/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "partload",
	Short: "Load partitioned Arrow tables into memory",
	Long: `partload assembles the partition files of each configured table into one
in-memory table: partitions are decoded concurrently, their schemas are
reconciled (or an override is used verbatim) and batches keep partition order.

Configuration is read from --config (YAML or JSON), then PARTLOAD_* environment
variables (a .env file in the working directory is honoured), then flags.`,
	SilenceUsage: true,
}

var rootFlags struct {
	configFile string
	dataDir    string
}

// Execute runs the root command. Cancelling ctx cancels in-flight loads.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.dataDir, "data-dir", "", "Base directory for local data and the manifest")
}

// loadConfig builds the configuration from file, environment and flags, in that order.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	var cfg *config.Config
	if rootFlags.configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(rootFlags.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if rootFlags.dataDir != "" {
		cfg.DataDir = rootFlags.dataDir
	}
	return cfg, nil
}

// newApp loads configuration, lets mutate adjust it and creates the app.
func newApp(mutate func(*config.Config)) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	return app.New(cfg)
}
