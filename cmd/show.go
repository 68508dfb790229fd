package cmd

import (
	"github.com/spf13/cobra"

	"github.com/schhibra/ntuple-tools/internal/presentation"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show NAME...",
	Short: "Print the selections of one or more collections",
	Long: `Print every selection of the named collections, one per line.

Examples:
  selections show tp_rate_selections
  selections show eg_id_pt_ee_selections --json | jq '.[].size'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter := presentation.NewFormatter(cmd.OutOrStdout())

		var collections []presentation.CollectionDTO
		for _, name := range args {
			sels, err := sess.catalog.Lookup(name)
			if err != nil {
				return err
			}
			if showJSON {
				collections = append(collections, presentation.FromCollection(name, sels))
				continue
			}
			if err := formatter.FormatSelections(sels); err != nil {
				return err
			}
		}

		if showJSON {
			return formatter.FormatJSON(collections)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print collections as JSON")
	rootCmd.AddCommand(showCmd)
}
