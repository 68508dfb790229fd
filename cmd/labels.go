package cmd

import (
	"github.com/spf13/cobra"

	"github.com/schhibra/ntuple-tools/internal/presentation"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the name to label map of every registered selection",
	Long: `Print the label of every selection recorded while building the catalog,
keyed by selection name, as JSON.

Examples:
  selections labels | jq '.EGq4'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatJSON(sess.catalog.Registry().Labels())
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
