package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/hearth"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hearth",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hearth version %s\n", strings.TrimSpace(hearth.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
