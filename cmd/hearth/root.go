package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/hearth/internal/config"
	"github.com/aretw0/hearth/internal/logging"
	"github.com/spf13/cobra"
)

// cfg is loaded before every command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "hearth is a guided stay-search assistant",
	Long: `hearth walks visitors through accommodation type, city, budget and
amenities, searches matching properties, and escalates to a support team
when nothing fits.

Configuration comes from HEARTH_* environment variables (an optional .env
file is read first); flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		loaded, err := config.Load(files...)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", "", "Env file to load instead of ./.env")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("catalog", "", "Catalog file (YAML or JSON) replacing the embedded one")
	flags.String("backend", "", "Search and ticket backend: memory, sqlite or rest")
	flags.String("backend-url", "", "Base URL of the rest backend")
	flags.String("sqlite", "", "Path of the sqlite database")
	flags.String("listings", "", "Listings file (YAML or JSON) for the memory and sqlite backends")
	flags.String("store", "", "Transcript store: none, memory, file or redis")
	flags.String("transcript-dir", "", "Directory of the file transcript store")
	flags.String("redis-url", "", "Redis URL of the transcript store")
	flags.Bool("forward-amenities", false, "Filter searches by the selected amenities")
}

// applyFlags overrides the loaded configuration with the flags the user set.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("log-level", &c.LogLevel)
	str("log-format", &c.LogFormat)
	str("catalog", &c.CatalogPath)
	str("backend", &c.Backend)
	str("backend-url", &c.BackendURL)
	str("sqlite", &c.SQLitePath)
	str("listings", &c.ListingsPath)
	str("store", &c.Store)
	str("redis-url", &c.RedisURL)
	str("transcript-dir", &c.TranscriptDir)
	if flags.Changed("forward-amenities") {
		c.ForwardAmenities, _ = flags.GetBool("forward-amenities")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		c.Port, _ = flags.GetInt("port")
	}
}

func newLogger() *slog.Logger {
	return logging.NewFormat(cfg.LogFormat, cfg.Level())
}
