package commands

import (
	"fmt"

	"quantusur/pkg/exporter"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <part> [part...]",
	Short: "Show the header of UR parts",
	Long:  `Print sequence, descriptor and fragment indexes of a UR part. With several parts a summary table is printed instead.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			if err := exporter.PrintPart(args[0], out); err != nil {
				return fmt.Errorf("inspect failed: %w", err)
			}
			return nil
		}
		exporter.PrintParts(args, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
