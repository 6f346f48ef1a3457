package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config|dir>...",
	Short: "Check the extracted PECs for integrity errors",
	Long: `Check every extracted PEC: the prefix must parse and its length must
equal the length of its trie path (errors). Classes without sources and
ranges whose start is above their end are reported as warnings.

Exits non-zero when any error is found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := analyzeArgs(args)
		if err != nil {
			return err
		}
		report := result.Validation
		out := cmd.OutOrStdout()

		if app.jsonOutput {
			if err := writeJSON(out, report); err != nil {
				return err
			}
			return report.Err()
		}

		fmt.Fprintf(out, "%d PECs: %s\n", len(result.PECs), cli.Status(report.Valid))
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  %s %s\n", cli.Red("error"), e)
		}
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "  %s %s\n", cli.Yellow("warning"), w)
		}
		return report.Err()
	},
}
