package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/schhibra/ntuple-tools/internal/config"
	"github.com/schhibra/ntuple-tools/internal/flags"
)

var flagCmd = &cobra.Command{
	Use:   "flag [NAME [true|false]]",
	Short: "Show or set the feature flags gating working-point extensions",
	Long: `Without arguments, print every known flag and its current value.
With NAME, print that flag. With NAME and a value, save the value to the
config file in use, keeping its comments.

Known flags: ` + fmt.Sprint(flags.Known()) + `

Examples:
  selections flag
  selections flag iso-working-points true`,
	Args:        cobra.MaximumNArgs(2),
	Annotations: map[string]string{skipCatalog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		current := flags.New(cfg.Flags)
		out := cmd.OutOrStdout()

		switch len(args) {
		case 0:
			for _, name := range flags.Known() {
				_, _ = fmt.Fprintf(out, "%s: %t\n", name, current.Enabled(name))
			}
			return nil
		case 1:
			if err := config.ValidateFlags(map[string]bool{args[0]: false}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "%s: %t\n", args[0], current.Enabled(args[0]))
			return nil
		}

		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("flag value %q: %w", args[1], err)
		}
		path := configPath()
		if err := config.SaveFlag(path, args[0], enabled); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s: %t (saved to %s)\n", args[0], enabled, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flagCmd)
}
