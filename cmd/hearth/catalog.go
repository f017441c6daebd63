package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/hearth"
	"github.com/aretw0/hearth/internal/catalog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the option catalog in use",
	Long: `Prints the accommodation types, cities, budgets and amenities offered to
visitors, as YAML. Set HEARTH_CATALOG_PATH (or --catalog) to replace the
embedded catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		if cfg.CatalogPath != "" {
			loaded, err := hearth.LoadCatalog(cfg.CatalogPath)
			if err != nil {
				return err
			}
			cat = loaded
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cat)
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog file for consistency",
	Long:  `Reports empty sections, duplicate values, reserved values and malformed budget ranges.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := hearth.LoadCatalog(args[0]); err != nil {
			var agg *catalog.AggregateError
			if errors.As(err, &agg) {
				for _, e := range agg.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
				}
				return fmt.Errorf("catalog %s has %d problem(s)", args[0], len(agg.Errors))
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Catalog is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
