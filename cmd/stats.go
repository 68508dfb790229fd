package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the catalog and print its metrics",
	Long: `Build the catalog and print the counters recorded while doing so in the
Prometheus text format: selections registered, pattern cache lookups by
result, and families built with their sizes by operation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sess.metrics.WriteText(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
