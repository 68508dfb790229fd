package cmd

import (
	"github.com/spf13/cobra"

	"github.com/schhibra/ntuple-tools/internal/presentation"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the collections of the catalog",
	Long: `List every collection name of the catalog, lists first, then the
derived families in definition order.

Examples:
  selections list
  selections list | grep ^tp_`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatNames(sess.catalog.Names())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
