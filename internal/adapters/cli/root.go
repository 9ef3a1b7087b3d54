// Package cli is the command-line surface over the museum catalog.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"museum_directory/internal/domain"
)

// NewRootCmd builds the musees command tree over catalog.
func NewRootCmd(catalog domain.Catalog) *cobra.Command {
	root := &cobra.Command{
		Use:   "musees",
		Short: "Search the Musées de France directory",
		Long: `Searches the Musées de France catalog by text, place, theme and
proximity. When the live catalog is unreachable a small built-in dataset is
used and results are flagged as mock data.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("json", false, "output as JSON")

	root.AddCommand(
		newSearchCmd(catalog),
		newShowCmd(catalog),
		newNearCmd(catalog),
		newFacetsCmd(catalog),
	)
	return root
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printOrigin(cmd *cobra.Command, origin domain.Origin) {
	if origin == domain.OriginMock {
		cmd.PrintErrln("warning: live catalog unavailable, showing built-in sample data")
	}
}
