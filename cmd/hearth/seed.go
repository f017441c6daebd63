package main

import (
	"fmt"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed [listings-file]",
	Short: "Load listings into the sqlite backend",
	Long: `Creates the sqlite database at HEARTH_SQLITE_PATH (or --sqlite) if needed
and upserts the listings from the given file, or the embedded sample listings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		props := catalog.SampleListings()
		if len(args) > 0 {
			loaded, err := catalog.LoadListings(args[0])
			if err != nil {
				return err
			}
			props = loaded
		}

		db, err := openSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Seed(cmd.Context(), props...); err != nil {
			return fmt.Errorf("failed to seed listings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d listing(s) into %s\n", len(props), cfg.SQLitePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
