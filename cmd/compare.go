package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/schhibra/ntuple-tools/internal/presentation"
	"github.com/schhibra/ntuple-tools/internal/selection"
)

// errCollectionsDiffer makes compare exit non-zero when the collections differ.
var errCollectionsDiffer = errors.New("collections differ")

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare A B",
	Short: "Compare two collections selection by selection",
	Long: `Sort both collections by name and compare them position by position on
name, predicate and label. Differences are printed as [DIFF] blocks with a
character diff of each differing field.

Exits with an error when the collections differ.

Examples:
  selections compare eg_id_pt_ee_selections eg_id_pt_ee_selections_ext
  selections compare tp_rate_selections tp_match_selections --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sess.catalog.Lookup(args[0])
		if err != nil {
			return err
		}
		b, err := sess.catalog.Lookup(args[1])
		if err != nil {
			return err
		}

		result := selection.Compare(a, b)
		formatter := presentation.NewFormatter(cmd.OutOrStdout(), presentation.WithStyle(isTerminal(cmd)))
		if compareJSON {
			err = formatter.FormatJSON(presentation.FromComparison(result))
		} else {
			err = formatter.FormatComparison(result)
		}
		if err != nil {
			return err
		}

		if !result.Equal {
			return fmt.Errorf("%w: %s and %s", errCollectionsDiffer, args[0], args[1])
		}
		return nil
	},
}

// isTerminal reports whether the command writes to a terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the comparison as JSON")
	rootCmd.AddCommand(compareCmd)
}
